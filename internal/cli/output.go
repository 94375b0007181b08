package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// printJSON writes v indented, for scripting.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
