package model

import (
	"encoding/json"
	"fmt"
)

// WarningKind classifies a recoverable provisioning problem.
// None of these kinds abort a run; they degrade to "fewer or no sequences
// for this site" plus a diagnostic.
type WarningKind int

const (
	// WarningEmptyMenu indicates a site whose menu has at most one page.
	WarningEmptyMenu WarningKind = iota

	// WarningEmptyStartAlphabet indicates that every non-home page is a tripwire,
	// so no sequence can start on a legal page.
	WarningEmptyStartAlphabet

	// WarningSingleSymbol indicates a legal alphabet of one symbol, which can
	// never satisfy the adjacency rule for sequences longer than one.
	WarningSingleSymbol

	// WarningBudgetExhausted indicates that the attempt budget ran out before
	// the requested number of sequences was found.
	WarningBudgetExhausted

	// WarningSpaceExhausted indicates that every valid sequence for the site
	// was allocated before reaching the requested count.
	WarningSpaceExhausted

	// WarningDenylistUnavailable indicates that the common-PIN list could not be
	// fetched or is not published for the configured length. Filtering is off.
	WarningDenylistUnavailable

	// WarningDenylistReadError indicates that the cached list became unreadable
	// while checking candidates. Filtering is off for the rest of the site.
	WarningDenylistReadError

	// WarningInvalidLength indicates a sequence length below one.
	WarningInvalidLength

	// WarningSourceMissing indicates that a site source directory to clone was
	// not found.
	WarningSourceMissing

	// WarningTemplateMissing indicates that a SQL template was not found and
	// its script was skipped.
	WarningTemplateMissing

	// WarningUsernameShortfall indicates that the username pool is smaller
	// than requested.
	WarningUsernameShortfall
)

// String returns a short identifier for the warning kind.
func (k WarningKind) String() string {
	switch k {
	case WarningEmptyMenu:
		return "empty_menu"
	case WarningEmptyStartAlphabet:
		return "empty_start_alphabet"
	case WarningSingleSymbol:
		return "single_symbol_alphabet"
	case WarningBudgetExhausted:
		return "budget_exhausted"
	case WarningSpaceExhausted:
		return "space_exhausted"
	case WarningDenylistUnavailable:
		return "denylist_unavailable"
	case WarningDenylistReadError:
		return "denylist_read_error"
	case WarningInvalidLength:
		return "invalid_length"
	case WarningSourceMissing:
		return "source_missing"
	case WarningTemplateMissing:
		return "template_missing"
	case WarningUsernameShortfall:
		return "username_shortfall"
	default:
		return "unknown"
	}
}

// ParseWarningKind is the inverse of WarningKind.String.
func ParseWarningKind(name string) (WarningKind, bool) {
	for k := WarningEmptyMenu; k <= WarningUsernameShortfall; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Warning is a diagnostic surfaced to the caller instead of an error.
type Warning struct {
	// Domain is the site the warning applies to. Empty for run-wide warnings.
	Domain string `json:"domain,omitempty"`

	// Kind classifies the warning.
	Kind WarningKind `json:"-"`

	// KindName mirrors Kind for serialized reports.
	KindName string `json:"kind"`

	// Message is a human-readable explanation.
	Message string `json:"message"`
}

// NewWarning creates a Warning with a formatted message.
func NewWarning(domain string, kind WarningKind, format string, args ...any) Warning {
	return Warning{
		Domain:   domain,
		Kind:     kind,
		KindName: kind.String(),
		Message:  fmt.Sprintf(format, args...),
	}
}

// String formats the warning for terminal output.
func (w Warning) String() string {
	kind := w.KindName
	if kind == "" {
		kind = w.Kind.String()
	}
	if w.Domain == "" {
		return fmt.Sprintf("[%s] %s", kind, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", kind, w.Domain, w.Message)
}

// UnmarshalJSON restores Kind from the serialized kind name.
func (w *Warning) UnmarshalJSON(data []byte) error {
	type plain Warning
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*w = Warning(decoded)
	if kind, ok := ParseWarningKind(w.KindName); ok {
		w.Kind = kind
	}
	return nil
}
