package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mediaforge/mediaforge-api/internal/style"
)

// formString returns a form value, or def when the field is absent or empty.
func formString(r *http.Request, key, def string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return def
}

// formInt parses an integer form value, returning def when absent.
func formInt(r *http.Request, key string, def int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %q must be an integer", key)
	}
	return n, nil
}

// formFloat parses a float form value, returning def when absent.
func formFloat(r *http.Request, key string, def float64) (float64, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q must be a number", key)
	}
	return f, nil
}

// formBool parses a boolean form value, returning def when absent.
func formBool(r *http.Request, key string, def bool) (bool, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("field %q must be a boolean", key)
	}
	return b, nil
}

// parseStyleRequest reads the shared subtitle styling fields, falling back to
// the documented defaults.
func parseStyleRequest(r *http.Request) (SubtitleStyleRequest, error) {
	def := style.Default()
	req := SubtitleStyleRequest{
		FontName:        formString(r, "font_name", def.FontName),
		FontColor:       formString(r, "font_color", def.Primary.Value),
		BorderColor:     formString(r, "border_color", def.Outline.Value),
		BackgroundColor: formString(r, "background_color", def.Background.Value),
	}

	var err error
	if req.FontSize, err = formInt(r, "font_size", def.FontSize); err != nil {
		return req, err
	}
	if req.FontAlpha, err = formFloat(r, "font_alpha", def.Primary.Alpha); err != nil {
		return req, err
	}
	if req.BorderStyle, err = formInt(r, "border_style", def.BorderStyle); err != nil {
		return req, err
	}
	if req.BorderSize, err = formInt(r, "border_size", def.BorderSize); err != nil {
		return req, err
	}
	if req.BorderAlpha, err = formFloat(r, "border_alpha", def.Outline.Alpha); err != nil {
		return req, err
	}
	if req.ShadowSize, err = formInt(r, "shadow_size", def.ShadowSize); err != nil {
		return req, err
	}
	if req.BackgroundAlpha, err = formFloat(r, "background_alpha", def.Background.Alpha); err != nil {
		return req, err
	}
	if req.MarginVertical, err = formInt(r, "margin_vertical", def.MarginV); err != nil {
		return req, err
	}
	if req.Alignment, err = formInt(r, "alignment", def.Alignment); err != nil {
		return req, err
	}
	return req, nil
}

// toDescriptor converts the request fields to the style package's descriptor.
func (s SubtitleStyleRequest) toDescriptor() style.Descriptor {
	return style.Descriptor{
		FontName:    s.FontName,
		FontSize:    s.FontSize,
		Primary:     style.Color{Value: s.FontColor, Alpha: s.FontAlpha},
		Outline:     style.Color{Value: s.BorderColor, Alpha: s.BorderAlpha},
		Background:  style.Color{Value: s.BackgroundColor, Alpha: s.BackgroundAlpha},
		BorderStyle: s.BorderStyle,
		BorderSize:  s.BorderSize,
		ShadowSize:  s.ShadowSize,
		MarginV:     s.MarginVertical,
		Alignment:   s.Alignment,
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
