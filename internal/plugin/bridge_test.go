package plugin

import (
	"reflect"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestToGoValue_Scalars(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tests := []struct {
		name string
		in   lua.LValue
		want any
	}{
		{"nil", lua.LNil, nil},
		{"true", lua.LTrue, true},
		{"integer", lua.LNumber(42), int64(42)},
		{"float", lua.LNumber(4.5), 4.5},
		{"string", lua.LString("hi"), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toGoValue(tt.in); got != tt.want {
				t.Errorf("toGoValue(%v) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestToGoValue_ArrayTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	tbl.Append(lua.LString("a"))
	tbl.Append(lua.LNumber(2))
	tbl.Append(lua.LTrue)

	got := toGoValue(tbl)
	want := []any{"a", int64(2), true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("toGoValue = %v, want %v", got, want)
	}
}

func TestToGoValue_MapTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	tbl.RawSetString("title", lua.LString("hello"))
	tbl.RawSetString("count", lua.LNumber(3))

	got := toGoValue(tbl)
	want := map[string]any{"title": "hello", "count": int64(3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("toGoValue = %v, want %v", got, want)
	}
}

func TestToGoValue_SparseTableBecomesMap(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	tbl.RawSetInt(1, lua.LString("a"))
	tbl.RawSetInt(3, lua.LString("c"))

	got, ok := toGoValue(tbl).(map[string]any)
	if !ok {
		t.Fatalf("expected a map for sparse keys, got %T", toGoValue(tbl))
	}
	if got["1"] != "a" || got["3"] != "c" {
		t.Errorf("unexpected map %v", got)
	}
}

func TestToGoValue_CircularTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	tbl.RawSetString("self", tbl)

	// Must terminate.
	got, ok := toGoValue(tbl).(map[string]any)
	if !ok {
		t.Fatal("expected a map")
	}
	if got["self"] != nil {
		t.Errorf("expected the circular reference cut to nil, got %v", got["self"])
	}
}

func TestToGoValue_UserData(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	type payload struct{ n int }
	ud := L.NewUserData()
	ud.Value = payload{n: 7}

	got, ok := toGoValue(ud).(payload)
	if !ok || got.n != 7 {
		t.Errorf("expected the wrapped Go value back, got %v", toGoValue(ud))
	}
}

func TestToLuaValue_RoundTrip(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", 5, int64(5)},
		{"int64", int64(9), int64(9)},
		{"float", 1.5, 1.5},
		{"string", "x", "x"},
		{"bytes", []byte("raw"), "raw"},
		{"slice", []any{int64(1), "b"}, []any{int64(1), "b"}},
		{"map", map[string]any{"k": "v"}, map[string]any{"k": "v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toGoValue(toLuaValue(L, tt.in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("round trip = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestToLuaValue_UnknownTypeBecomesUserData(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	type custom struct{ s string }
	lv := toLuaValue(L, custom{s: "opaque"})

	ud, ok := lv.(*lua.LUserData)
	if !ok {
		t.Fatalf("expected userdata, got %T", lv)
	}
	if ud.Value.(custom).s != "opaque" {
		t.Error("expected the Go value preserved")
	}
}
