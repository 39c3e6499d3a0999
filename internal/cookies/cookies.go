// Package cookies loads browser cookie bundles exported in the Netscape
// cookies.txt format.
package cookies

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// LoadFile reads a Netscape cookie bundle from path.
func LoadFile(path string) ([]*http.Cookie, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	cookies, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cookie file %s: %w", path, err)
	}
	return cookies, nil
}

// Parse reads Netscape cookie lines from r. Each line holds seven tab
// separated fields: domain, include-subdomains flag, path, secure flag,
// expiry (epoch seconds, 0 for session cookies), name and value.
func Parse(r io.Reader) ([]*http.Cookie, error) {
	var cookies []*http.Cookie

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("line %d: expected 7 tab separated fields, got %d", lineNo, len(fields))
		}

		secure, err := parseFlag(fields[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: secure flag: %w", lineNo, err)
		}
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid expiry %q: %w", lineNo, fields[4], err)
		}

		cookie := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   secure,
			HttpOnly: httpOnly,
			Name:     fields[5],
			Value:    fields[6],
		}
		if expiry > 0 {
			cookie.Expires = time.Unix(expiry, 0).UTC()
		}
		cookies = append(cookies, cookie)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cookies, nil
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToUpper(raw) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	default:
		return false, fmt.Errorf("expected TRUE or FALSE, got %q", raw)
	}
}
