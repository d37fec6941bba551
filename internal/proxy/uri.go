package proxy

import "strings"

// Synthetic URI schemes carried on the wire. The document ID is the
// authority component, so any identity can be resolved back to its
// owning session without per-scheme bookkeeping.
//
//	notebook://<doc-id>            human view (user-facing)
//	overlay://<doc-id>             open edit overlay of the human view
//	shadow://<doc-id>.<ext>        backend-facing shadow view
//	notebook-preview://<doc-id>    read-only preview used for list results
const (
	schemeHuman   = "notebook"
	schemeOverlay = "overlay"
	schemeShadow  = "shadow"
	schemePreview = "notebook-preview"
)

// HumanURI returns the human view identity for a document.
func HumanURI(docID string) DocumentURI {
	return DocumentURI(schemeHuman + "://" + docID)
}

// OverlayURI returns the edit overlay identity for a document.
func OverlayURI(docID string) DocumentURI {
	return DocumentURI(schemeOverlay + "://" + docID)
}

// ShadowURI returns the backend-facing identity for a document. The
// extension is derived from the language so backends that sniff file
// types behave.
func ShadowURI(docID, languageID string) DocumentURI {
	return DocumentURI(schemeShadow + "://" + docID + "." + extensionFor(languageID))
}

// PreviewURI returns the read-only preview identity for a document.
func PreviewURI(docID string) DocumentURI {
	return DocumentURI(schemePreview + "://" + docID)
}

// SplitURI breaks a synthetic URI into scheme and document ID. The
// shadow extension is stripped. ok is false for foreign URIs such as
// file:// paths from the backend's workspace.
func SplitURI(u DocumentURI) (scheme, docID string, ok bool) {
	scheme, rest, found := strings.Cut(string(u), "://")
	if !found {
		return "", "", false
	}
	switch scheme {
	case schemeShadow:
		if i := strings.LastIndexByte(rest, '.'); i >= 0 {
			rest = rest[:i]
		}
		return scheme, rest, true
	case schemeHuman, schemeOverlay, schemePreview:
		return scheme, rest, true
	}
	return scheme, rest, false
}

// extensionFor maps a language identifier to a file extension. Unknown
// languages fall back to the identifier itself.
func extensionFor(languageID string) string {
	switch languageID {
	case "python":
		return "py"
	case "julia":
		return "jl"
	case "r":
		return "r"
	case "go":
		return "go"
	case "javascript":
		return "js"
	case "typescript":
		return "ts"
	case "rust":
		return "rs"
	case "ruby":
		return "rb"
	default:
		return languageID
	}
}
