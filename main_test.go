package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/OdyseeTeam/blk-headers/chain"

	"github.com/cockroachdb/errors"
)

func TestParseHeight(t *testing.T) {
	for arg, want := range map[string]int{"0": 0, "3": 3, "222": 222} {
		height, err := parseHeight(arg)
		if err != nil {
			t.Errorf("%q: %v", arg, err)
		}
		if height != want {
			t.Errorf("%q: expected %d, got %d", arg, want, height)
		}
	}

	for _, arg := range []string{"", "-1", "abc", "1.5", "0x10"} {
		_, err := parseHeight(arg)
		if err == nil {
			t.Errorf("%q: expected an error", arg)
		}
	}
}

func TestHeaderAt(t *testing.T) {
	buf := &bytes.Buffer{}
	var prev chain.Header
	for i := 0; i < 4; i++ {
		h := chain.Header{Version: 1, Time: uint32(1231006505 + i), Nonce: uint32(i)}
		if i > 0 {
			h.PrevBlockHash = prev.BlockHash()
		}
		err := chain.WriteRecord(buf, chain.MainNetMagic, h, make([]byte, 10*i))
		if err != nil {
			t.Fatal(err)
		}
		prev = h
	}

	filename := filepath.Join(t.TempDir(), chain.DefaultBlockFile)
	err := os.WriteFile(filename, buf.Bytes(), 0644)
	if err != nil {
		t.Fatal(err)
	}

	header, err := headerAt(chain.Config{BlockFile: filename}, 3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if header.PrevBlockHash != prev.PrevBlockHash {
		t.Errorf("expected previous hash %s, got %s", prev.PrevBlockHash, header.PrevBlockHash)
	}

	_, err = headerAt(chain.Config{BlockFile: filename}, 4)
	if !errors.Is(err, chain.ErrHeightOutOfRange) {
		t.Errorf("expected out of range error, got %v", err)
	}

	_, err = headerAt(chain.Config{BlockFile: filepath.Join(t.TempDir(), "missing.dat")}, 0)
	if err == nil {
		t.Error("expected an error for a missing block file")
	}
}
