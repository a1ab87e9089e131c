// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package version

import (
	"fmt"
)

// These are populated at build time
var (
	Version    string
	CommitHash string
)

func GetVersionString() string {
	commit := CommitHash
	if commit == "" {
		commit = "unknown"
	}
	if Version == "" {
		return fmt.Sprintf("devel (commit %s)", commit)
	}
	return fmt.Sprintf("%s (commit %s)", Version, commit)
}

// GetProgramVersion returns a "name version" banner for command output
func GetProgramVersion(name string) string {
	return fmt.Sprintf("%s %s", name, GetVersionString())
}
