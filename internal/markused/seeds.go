package markused

import (
	"strings"

	"veld/internal/pref"
	"veld/internal/symbols"
)

// runtimeSeeds is the fixed set of runtime-support functions every
// compiled program may need regardless of what it calls directly:
// allocation, string and array plumbing, panic and assert machinery.
// Keys the current compilation does not define are skipped.
var runtimeSeeds = []string{
	"main.main",
	"builtin.malloc",
	"builtin.vcalloc",
	"builtin.free",
	"builtin.panic",
	"builtin.panic_option_not_set",
	"builtin.assert_fail",
	"builtin.new_array",
	"builtin.new_array_with_default",
	"builtin.new_array_from_c_array",
	"builtin.array_push",
	"builtin.array_get",
	"builtin.array_set",
	"builtin.array_clone",
	"builtin.string_clone",
	"builtin.string_concat",
	"builtin.string_eq",
	"builtin.str_intp",
	"builtin.println",
	"builtin.eprintln",
}

// bareSeeds replaces libc entry points in freestanding builds.
var bareSeeds = []string{
	"builtin.sys_write",
	"builtin.sys_exit",
	"builtin.sys_mmap",
	"builtin.sys_munmap",
}

// gcSeeds are the collector-aware allocation variants. The noscan forms
// are selected at lowering time for pointer-free payloads, so both must
// survive dead-code elimination whenever a collector is linked.
var gcSeeds = []string{
	"builtin.gc_alloc",
	"builtin.gc_alloc_noscan",
	"builtin.gc_realloc",
	"builtin.gc_collect",
}

var livemainSeeds = []string{
	"main.live_update",
	"main.reload_code",
}

var testHarnessSeeds = []string{
	"main.testsuite_begin",
	"main.testsuite_end",
	"builtin.test_assert",
}

// mapRuntimeFns is the map-support set pulled in by type presence rather
// than call edges. When no map type was instantiated anywhere, these are
// removed from the used set after the walk.
var mapRuntimeFns = []string{
	"builtin.new_map",
	"builtin.map_get",
	"builtin.map_set",
	"builtin.map_delete",
	"builtin.map_exists",
	"builtin.map_keys",
	"builtin.map_values",
	"builtin.map_clone",
	"builtin.map_free",
}

// ormMethods are dynamic-dispatch targets of the database layer; they are
// rooted for every type that exposes any of them.
var ormMethods = map[string]bool{
	"select":  true,
	"insert":  true,
	"update":  true,
	"delete":  true,
	"create":  true,
	"drop":    true,
	"last_id": true,
}

// autoMethods are compiler-generated or compiler-invoked method names
// referenced without visible call edges.
var autoMethods = []string{"str", "auto_str", "init", "free", "lock", "unlock"}

// seedKeys assembles the full root list for one configuration.
func seedKeys(tab *symbols.Table, prefs *pref.Preferences) []string {
	keys := make([]string, 0, len(runtimeSeeds)+16)
	keys = append(keys, runtimeSeeds...)

	if prefs.IsBare {
		keys = append(keys, bareSeeds...)
	}
	if prefs.GC != pref.GCNone {
		keys = append(keys, gcSeeds...)
	}
	if prefs.IsLivemain {
		keys = append(keys, livemainSeeds...)
	}
	if prefs.IsTest {
		keys = append(keys, testHarnessSeeds...)
		for key, fn := range tab.Fns {
			if strings.HasPrefix(fn.Name, "test_") {
				keys = append(keys, key)
			}
		}
	}
	if prefs.IsShared {
		// exported ABI is pinned: every public function stays
		for key, fn := range tab.Fns {
			if fn.IsPub {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// interfaceRoots expands dynamic-dispatch targets: for every interface,
// each implementing type's version of each interface method is rooted.
// The call edges are invisible statically, so this over-approximates.
func interfaceRoots(tab *symbols.Table) []string {
	var keys []string
	for _, iface := range tab.Interfaces() {
		sym := tab.Get(iface)
		info, ok := sym.Info.(*symbols.InterfaceInfo)
		if !ok {
			continue
		}
		for _, impl := range info.Impls {
			implSym := tab.Get(impl)
			if implSym == nil {
				continue
			}
			for _, method := range info.Methods {
				keys = append(keys, implSym.Name+"."+method)
			}
		}
	}
	return keys
}

// ormRoots roots the driver method set on every type exposing any of it.
func ormRoots(tab *symbols.Table) []string {
	var keys []string
	for key, fn := range tab.Fns {
		if !fn.IsMethod {
			continue
		}
		if !ormMethods[fn.Name] {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
