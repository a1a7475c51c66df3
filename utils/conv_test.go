package utils

import (
	"reflect"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestParseTextureList(t *testing.T) {
	raw := []byte("# stage 1\r\nWALL.PVR\n\n  caf\xe9.pvr \nfloor\n")
	names, err := ParseTextureList(raw, charmap.Windows1252)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"WALL.PVR", "café.pvr", "floor"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("names %q; expected %q", names, expected)
	}
}

func TestStringBytes(t *testing.T) {
	bs, err := StringToBytes("café", charmap.Windows1252, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(bs) != 5 || bs[3] != 0xe9 || bs[4] != 0 {
		t.Errorf("encoded %x", bs)
	}
	s, err := BytesToString(append(bs, 'x'), charmap.Windows1252)
	if err != nil || s != "café" {
		t.Errorf("decoded %q, %v", s, err)
	}
}
