// Package endpoint turns static API descriptors into typed query and mutation
// operations backed by the transport and the query cache.
package endpoint

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingPathParam is returned in strict mode when a path placeholder has
// no value.
var ErrMissingPathParam = errors.New("endpoint: missing path parameter")

// Encoding selects how a request body is produced.
type Encoding int

const (
	// JSON marshals the body with encoding/json.
	JSON Encoding = iota
	// MultipartBody asks the body to encode itself; see BodyEncoder.
	MultipartBody
	// None sends no body.
	None
)

func (e Encoding) String() string {
	switch e {
	case JSON:
		return "json"
	case MultipartBody:
		return "multipart"
	case None:
		return "none"
	default:
		return "encoding(" + strconv.Itoa(int(e)) + ")"
	}
}

// PathParams maps placeholder names to their values.
type PathParams map[string]int64

// Descriptor declares one API operation. P is the parameter (query string or
// body) type and R the decoded response type.
type Descriptor[P, R any] struct {
	Method   string
	Path     string
	Encoding Encoding
}

// Get declares a read; P is encoded as the query string.
func Get[P, R any](path string) Descriptor[P, R] {
	return Descriptor[P, R]{Method: http.MethodGet, Path: path, Encoding: None}
}

// Post declares a write with a JSON body.
func Post[P, R any](path string) Descriptor[P, R] {
	return Descriptor[P, R]{Method: http.MethodPost, Path: path, Encoding: JSON}
}

// Put declares an update with a JSON body.
func Put[P, R any](path string) Descriptor[P, R] {
	return Descriptor[P, R]{Method: http.MethodPut, Path: path, Encoding: JSON}
}

// Delete declares a removal without a body.
func Delete[P, R any](path string) Descriptor[P, R] {
	return Descriptor[P, R]{Method: http.MethodDelete, Path: path, Encoding: None}
}

// Multipart declares a POST whose body type implements BodyEncoder.
func Multipart[P BodyEncoder, R any](path string) Descriptor[P, R] {
	return Descriptor[P, R]{Method: http.MethodPost, Path: path, Encoding: MultipartBody}
}

func (d Descriptor[P, R]) String() string {
	return d.Method + " " + d.Path
}

// Placeholders lists the {name} tokens in the path template, in order.
func (d Descriptor[P, R]) Placeholders() []string {
	return placeholders(d.Path)
}

// Resolve substitutes every supplied placeholder with its decimal value.
// Placeholders without a value are left in place.
func (d Descriptor[P, R]) Resolve(params PathParams) string {
	return resolvePath(d.Path, params)
}

var placeholderRE = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

func placeholders(path string) []string {
	matches := placeholderRE.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

func resolvePath(path string, params PathParams) string {
	for name, value := range params {
		path = strings.ReplaceAll(path, "{"+name+"}", strconv.FormatInt(value, 10))
	}
	return path
}
