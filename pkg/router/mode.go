package router

import "fmt"

// Mode is a rendering mode.
type Mode string

const (
	// ModeSSR renders on the server for every request.
	ModeSSR Mode = "ssr"

	// ModeSSG renders once at build time.
	ModeSSG Mode = "ssg"

	// ModeSPA serves a client-rendering shell.
	ModeSPA Mode = "spa"

	// ModeAPI dispatches to a request/response handler.
	ModeAPI Mode = "api"
)

// ParseMode parses a mode name. The empty string is not a mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("router: unknown rendering mode %q", s)
	}
	return m, nil
}

// Valid reports whether m is one of the four modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeSSR, ModeSSG, ModeSPA, ModeAPI:
		return true
	}
	return false
}

// IsPage reports whether m renders a page.
func (m Mode) IsPage() bool {
	return m == ModeSSR || m == ModeSSG || m == ModeSPA
}

// DataContract describes where a mode's loader runs.
type DataContract uint8

const (
	// ContractNone runs no loader.
	ContractNone DataContract = iota

	// ContractPerRequest runs the loader on the server for each request.
	ContractPerRequest

	// ContractAtBuild runs the loader once while building static pages.
	ContractAtBuild

	// ContractOnClient leaves loading to the client.
	ContractOnClient
)

func (c DataContract) String() string {
	switch c {
	case ContractPerRequest:
		return "per-request"
	case ContractAtBuild:
		return "at-build"
	case ContractOnClient:
		return "on-client"
	default:
		return "none"
	}
}

// Contract returns the data-loading contract implied by m.
func (m Mode) Contract() DataContract {
	switch m {
	case ModeSSR:
		return ContractPerRequest
	case ModeSSG:
		return ContractAtBuild
	case ModeSPA:
		return ContractOnClient
	default:
		return ContractNone
	}
}

// ResolveMode returns the effective rendering mode of a leaf. API leaves
// always resolve to ModeAPI. Otherwise the explicit leaf suffix wins, then
// the innermost directory suffix, then ambient, then ModeSSR.
func ResolveMode(leaf *Leaf, ambient Mode) Mode {
	if leaf == nil {
		return ""
	}
	if leaf.IsAPI {
		return ModeAPI
	}
	for _, m := range []Mode{leaf.Suffix, leaf.DirMode, ambient} {
		if m.IsPage() {
			return m
		}
	}
	return ModeSSR
}
