// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/core"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var (
	errMalformedBody = errors.New("malformed request body")
	errInvalidFlag   = errors.New("must be true or false")
	errInvalidID     = errors.New("invalid expense id")
)

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = errMalformedBody
		}
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = errMalformedBody
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = errMalformedBody
	}
	return p.err
}

// Has reports whether key was supplied at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// GetList returns a list value. JSON arrays and repeated form keys are
// taken element-wise; a single string is split on commas.
func (p *RequestBodyParser) GetList(key string) []string {
	var raw []string
	switch {
	case p.jsonData != nil:
		switch val := p.jsonData[key].(type) {
		case []any:
			for _, v := range val {
				raw = append(raw, sanitizeInput(stringValue(v)))
			}
		case nil:
		default:
			raw = strings.Split(sanitizeInput(stringValue(val)), ",")
		}
	case p.formData != nil:
		values := p.formData[key]
		if len(values) == 1 {
			values = strings.Split(values[0], ",")
		}
		for _, v := range values {
			raw = append(raw, sanitizeInput(v))
		}
	}
	return core.NormalizeTags(raw)
}

// GetBool parses a boolean value. Missing keys are false.
func (p *RequestBodyParser) GetBool(key string) (bool, error) {
	v := strings.ToLower(p.Get(key))
	switch v {
	case "":
		return false, nil
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errInvalidFlag
	}
	return b, nil
}

// ExpenseInput validates the body fields of an add or update request.
// Details is nil unless one of tags, receipt_note or recurring was sent.
func (p *RequestBodyParser) ExpenseInput() (core.ExpenseInput, error) {
	var in core.ExpenseInput

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return in, &core.ValidationError{Field: "amount", Err: err}
	}
	in.Amount = amount

	if in.Category, err = core.ParseCategory(p.Get("category")); err != nil {
		return in, err
	}
	if in.Date, err = core.ParseDate(p.Get("date")); err != nil {
		return in, err
	}

	in.Description = p.Get("description")
	if in.Description == "" {
		return in, &core.ValidationError{Field: "description", Err: core.ErrEmptyDescription}
	}

	if p.Has("tags") || p.Has("receipt_note") || p.Has("recurring") {
		recurring, err := p.GetBool("recurring")
		if err != nil {
			return in, &core.ValidationError{Field: "recurring", Err: err}
		}
		in.Details = &core.Details{
			Tags:        p.GetList("tags"),
			ReceiptNote: p.Get("receipt_note"),
			Recurring:   recurring,
		}
	}
	return in, nil
}

// ParseFilter reads start, end and q from query parameters. A malformed
// bound is an error; an absent one is no constraint.
func ParseFilter(query url.Values) (aggregate.FilterSpec, error) {
	var f aggregate.FilterSpec
	var err error
	if v := strings.TrimSpace(query.Get("start")); v != "" {
		if f.Start, err = core.ParseDate(v); err != nil {
			return f, &core.ValidationError{Field: "start", Err: core.ErrInvalidDate}
		}
	}
	if v := strings.TrimSpace(query.Get("end")); v != "" {
		if f.End, err = core.ParseDate(v); err != nil {
			return f, &core.ValidationError{Field: "end", Err: core.ErrInvalidDate}
		}
	}
	f.Search = sanitizeInput(query.Get("q"))
	return f, nil
}

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
