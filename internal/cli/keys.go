package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sprocket78/ai-battle-app/config"
	"github.com/sprocket78/ai-battle-app/core"
)

// secretReader reads one credential without echo.
type secretReader func(prompt string) (string, error)

var errNoTerminal = errors.New("stdin is not a terminal")

// terminalSecret prompts on out and reads from in when in is a terminal.
func terminalSecret(in *os.File, out io.Writer) secretReader {
	return func(prompt string) (string, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return "", errNoTerminal
		}
		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
}

// collectKeys returns the credential of each side whose configuration has
// none, asking read for it. Configured keys are left to the backends.
func collectKeys(cfg *config.Config, read secretReader) (map[core.Side]string, error) {
	keys := make(map[core.Side]string, 2)
	for _, side := range []struct {
		side core.Side
		path string
		bc   config.BackendConfig
	}{
		{core.SideA, "backends.a", cfg.Backends.A},
		{core.SideB, "backends.b", cfg.Backends.B},
	} {
		if side.bc.ResolveAPIKey() != "" {
			continue
		}
		key := ""
		if read != nil {
			k, err := read(fmt.Sprintf("%s API key: ", side.bc.Name))
			if err != nil && !errors.Is(err, errNoTerminal) {
				return nil, fmt.Errorf("read %s API key: %w", side.bc.Name, err)
			}
			key = k
		}
		if key == "" {
			return nil, core.NewError(core.KindCredentialInvalid, side.bc.Name, missingKeyHint(side.path, side.bc), nil)
		}
		keys[side.side] = key
	}
	return keys, nil
}

func missingKeyHint(path string, bc config.BackendConfig) string {
	if bc.APIKeyEnv != "" {
		return fmt.Sprintf("no API key: set %s or %s.api_key", bc.APIKeyEnv, path)
	}
	return fmt.Sprintf("no API key: set %s.api_key", path)
}
