package utils

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// BytesToString decodes a zero terminated legacy string.
func BytesToString(bs []byte, cm *charmap.Charmap) (string, error) {
	s, _, err := transform.Bytes(cm.NewDecoder(), bs[:BytesStringLength(bs)])
	if err != nil {
		return "", errors.Wrap(err, "decode string")
	}
	return string(s), nil
}

func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}

func StringToBytes(s string, cm *charmap.Charmap, nilTerminate bool) ([]byte, error) {
	bs, _, err := transform.Bytes(cm.NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "encode %q", s)
	}
	if nilTerminate {
		bs = append(bs, 0)
	}
	return bs, nil
}

// ParseTextureList splits a texture list into names, one per line.
// Blank lines and lines starting with '#' are skipped.
func ParseTextureList(raw []byte, cm *charmap.Charmap) ([]string, error) {
	r := transform.NewReader(bytes.NewReader(raw), cm.NewDecoder())
	names := make([]string, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan texture list")
	}
	return names, nil
}

func LoadTextureList(path string, cm *charmap.Charmap) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read texture list %q", path)
	}
	names, err := ParseTextureList(raw, cm)
	return names, errors.Wrapf(err, "texture list %q", path)
}
