/*
	This file holds types and functions supporting command-line activity in ndtex.
*/

package ndtex

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys for setting various arguments within the command line via "key=value" strings.
const (
	KeyConfigFile      = "config"
	KeyMaxTextureSize  = "maxsize"
	KeyMaxTextureCount = "maxcount"
	KeyMaxTracks       = "maxtracks"
	KeyArrowFile       = "arrow"
	KeySampleSize      = "sample"
	KeyPercentiles     = "percentiles"
	KeyChunkSize       = "chunksize"
)

var setKeys = map[string]bool{
	KeyConfigFile:      true,
	KeyMaxTextureSize:  true,
	KeyMaxTextureCount: true,
	KeyMaxTracks:       true,
	KeyArrowFile:       true,
	KeySampleSize:      true,
	KeyPercentiles:     true,
	KeyChunkSize:       true,
}

// Command supports command-line requests.  The first item in the string slice
// is the command, e.g., "atlas".  The other arguments are command arguments or
// optional settings of the form "<key>=<value>".
type Command []string

// String returns a space-separated command line
func (cmd Command) String() string {
	return strings.Join([]string(cmd), " ")
}

// Name returns the first argument which is assumed to be the name of the command.
func (cmd Command) Name() string {
	if len(cmd) == 0 {
		return ""
	}
	return cmd[0]
}

// Parameter scans a command for any "key=value" argument and returns
// the value of the passed 'key'.
func (cmd Command) Parameter(key string) (value string, found bool) {
	if len(cmd) > 1 {
		for _, arg := range cmd[1:] {
			elems := strings.SplitN(arg, "=", 2)
			if len(elems) == 2 && elems[0] == key {
				value = elems[1]
				found = true
				return
			}
		}
	}
	return
}

// IntParameter returns the integer value of a "key=value" argument or the given
// default if the key is absent.
func (cmd Command) IntParameter(key string, defaultValue int) (int, error) {
	s, found := cmd.Parameter(key)
	if !found {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad %s=%q setting: %w", key, s, ErrArgument)
	}
	return i, nil
}

// FloatsParameter returns a comma-separated list of floats, e.g., "percentiles=1,50,99".
func (cmd Command) FloatsParameter(key string) ([]float64, error) {
	s, found := cmd.Parameter(key)
	if !found || s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	values := make([]float64, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad %s=%q setting: %w", key, s, ErrArgument)
		}
		values[i] = f
	}
	return values, nil
}

// CommandArgs sets a variadic argument set of string pointers to command
// arguments, ignoring setting arguments of the form "<key>=<value>".
// If there aren't enough arguments to set a target, the target is set to the
// empty string.  It returns an 'overflow' slice that has all arguments
// beyond those needed for targets.
func (cmd Command) CommandArgs(targets ...*string) (overflow []string) {
	return getArgs(cmd, 1, targets...)
}

func getArgs(cmd Command, startPos int, targets ...*string) (overflow []string) {
	overflow = make([]string, 0, len(cmd))
	for _, target := range targets {
		*target = ""
	}
	if len(cmd) > startPos {
		numTargets := len(targets)
		curTarget := 0
		for _, arg := range cmd[startPos:] {
			optionalSet := false
			elems := strings.SplitN(arg, "=", 2)
			if len(elems) == 2 {
				_, optionalSet = setKeys[elems[0]]
			}
			if !optionalSet {
				if curTarget >= numTargets {
					overflow = append(overflow, arg)
				} else {
					*(targets[curTarget]) = arg
				}
				curTarget++
			}
		}
	}
	return
}
