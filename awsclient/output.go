package awsclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatInvoke(w io.Writer, result *InvokeResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatInvoke prints the status line and headers, then the raw body.
// In quiet mode only the body is printed.
func (f *HumanFormatter) FormatInvoke(w io.Writer, result *InvokeResult) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "%s %s\n", result.Proto, result.Status)

		names := make([]string, 0, len(result.Header))
		for name := range result.Header {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range result.Header[name] {
				_, _ = fmt.Fprintf(w, "%s: %s\n", name, v)
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(result.Body) > 0 {
		_, _ = w.Write(result.Body)
		if !bytes.HasSuffix(result.Body, []byte("\n")) {
			_, _ = fmt.Fprintln(w)
		}
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	// Calculate column widths
	maxNameLen := 4   // "NAME"
	maxRegionLen := 6 // "REGION"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Region) > maxRegionLen {
			maxRegionLen = len(profiles[i].Region)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxRegionLen > 20 {
		maxRegionLen = 20
	}

	// Print header
	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxRegionLen, "REGION", "ACCESS KEY")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxRegionLen), strings.Repeat("-", 20))

	// Print profiles
	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		region := p.Region
		if region == "" {
			region = "(default)"
		}
		if len(region) > maxRegionLen {
			region = region[:maxRegionLen-3] + "..."
		}

		accessKey := maskSecret(p.AccessKey, showSecrets)

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxRegionLen, region, accessKey)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:       %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Region:     %s\n", orDefault(profile.Region))
	_, _ = fmt.Fprintf(w, "Service:    %s\n", orDefault(profile.Service))
	_, _ = fmt.Fprintf(w, "Endpoint:   %s\n", orDefault(profile.Endpoint))
	_, _ = fmt.Fprintf(w, "Access Key: %s\n", maskSecret(profile.AccessKey, showSecrets))
	_, _ = fmt.Fprintf(w, "Secret Key: %s\n", maskSecret(profile.SecretKey, showSecrets))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatInvoke formats the response as JSON. A body that is itself valid
// JSON is embedded unquoted; anything else is carried as a string.
func (f *JSONFormatter) FormatInvoke(w io.Writer, result *InvokeResult) error {
	output := struct {
		StatusCode   int               `json:"status_code"`
		Status       string            `json:"status"`
		Headers      map[string]string `json:"headers,omitempty"`
		Body         json.RawMessage   `json:"body,omitempty"`
		BodyText     string            `json:"body_text,omitempty"`
		InvocationID string            `json:"invocation_id,omitempty"`
	}{
		StatusCode:   result.StatusCode,
		Status:       result.Status,
		InvocationID: result.InvocationID,
	}

	if len(result.Header) > 0 {
		output.Headers = make(map[string]string, len(result.Header))
		for name, values := range result.Header {
			output.Headers[name] = strings.Join(values, ", ")
		}
	}

	if len(result.Body) > 0 {
		if json.Valid(result.Body) {
			output.Body = result.Body
		} else {
			output.BodyText = string(result.Body)
		}
	}

	return writeJSON(w, output)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name      string `json:"name"`
		Region    string `json:"region,omitempty"`
		Service   string `json:"service,omitempty"`
		Endpoint  string `json:"endpoint,omitempty"`
		AccessKey string `json:"access_key,omitempty"`
		SecretKey string `json:"secret_key,omitempty"`
		Default   bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		jp := jsonProfile{
			Name:     p.Name,
			Region:   p.Region,
			Service:  p.Service,
			Endpoint: p.Endpoint,
			Default:  p.Name == defaultName,
		}
		if showSecrets {
			jp.AccessKey = p.AccessKey
			jp.SecretKey = p.SecretKey
		} else {
			jp.AccessKey = maskSecret(p.AccessKey, false)
			jp.SecretKey = maskSecret(p.SecretKey, false)
		}
		output.Profiles[i] = jp
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name      string `json:"name"`
		Region    string `json:"region,omitempty"`
		Service   string `json:"service,omitempty"`
		Endpoint  string `json:"endpoint,omitempty"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
		Default   bool   `json:"default"`
	}{
		Name:     profile.Name,
		Region:   profile.Region,
		Service:  profile.Service,
		Endpoint: profile.Endpoint,
		Default:  isDefault,
	}

	if showSecrets {
		output.AccessKey = profile.AccessKey
		output.SecretKey = profile.SecretKey
	} else {
		output.AccessKey = maskSecret(profile.AccessKey, false)
		output.SecretKey = maskSecret(profile.SecretKey, false)
	}

	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// orDefault substitutes a placeholder for fields left to their defaults.
func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
