package keyscfg

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/studiowebux/rustactions/internal/binds"
)

// ParsedFile is what can be recovered from an existing keys.cfg: the
// player's own section verbatim, and the dynamic-bind triples recorded in
// `# Dynamic:` comments inside the managed section.
type ParsedFile struct {
	UserSection []string
	Dynamic     []binds.DynamicEntry

	// HasMarkers is false for a file this tool never touched. Such a
	// file is adopted wholesale as the user section.
	HasMarkers bool
}

// Parse scans file content line by line. Malformed dynamic comments are
// skipped individually with a warning; they never fail the whole parse,
// so one corrupt line cannot take the tool down with it.
func Parse(content []byte, log *slog.Logger) ParsedFile {
	if log == nil {
		log = slog.Default()
	}

	lines := strings.Split(string(content), "\n")
	// Split leaves a trailing empty element when the file ends with a
	// newline; dropping it keeps the user section round-trippable.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var parsed ParsedFile
	inUser := false
	inActions := false
	inChat := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch trimmed {
		case userSectionStart:
			parsed.HasMarkers = true
			inUser = true
			continue
		case userSectionEnd:
			inUser = false
			continue
		case actionsStart:
			parsed.HasMarkers = true
			inActions = true
			continue
		case actionsEnd:
			inActions = false
			inChat = false
			continue
		}

		if inUser {
			parsed.UserSection = append(parsed.UserSection, line)
			continue
		}
		if !inActions {
			continue
		}

		// Dynamic comments only live in the chat/connection sub-block;
		// lookalike lines elsewhere in the file are someone else's.
		switch trimmed {
		case craftingHeader, apiHeader:
			inChat = false
			continue
		case chatHeader:
			inChat = true
			continue
		}
		if inChat && strings.HasPrefix(trimmed, dynamicCommentPrefix) {
			entry, ok := parseDynamicComment(trimmed)
			if !ok {
				log.Warn("skipping malformed dynamic bind comment", "line", trimmed)
				continue
			}
			parsed.Dynamic = append(parsed.Dynamic, entry)
		}
	}

	if !parsed.HasMarkers {
		// A foreign file: keep every actual bind line so nothing the
		// player set up is lost when the managed layout is written.
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			parsed.UserSection = append(parsed.UserSection, line)
		}
	}

	return parsed
}

// parseDynamicComment decodes `# Dynamic: <type> - '<value>' - bind no.<slot>`.
// The value is quoted with fixed delimiters rather than escaped; values
// containing the delimiters are rejected at creation time, so splitting
// on the first opening and last closing delimiter is unambiguous.
func parseDynamicComment(line string) (binds.DynamicEntry, bool) {
	rest := strings.TrimPrefix(line, dynamicCommentPrefix)

	typePart, rest, found := strings.Cut(rest, " - '")
	if !found {
		return binds.DynamicEntry{}, false
	}
	idx := strings.LastIndex(rest, "' - bind no.")
	if idx < 0 {
		return binds.DynamicEntry{}, false
	}
	value := rest[:idx]
	slotPart := rest[idx+len("' - bind no."):]

	slot, err := strconv.Atoi(strings.TrimSpace(slotPart))
	if err != nil {
		return binds.DynamicEntry{}, false
	}

	return binds.DynamicEntry{
		Type:  binds.CommandType(strings.TrimSpace(typePart)),
		Value: value,
		Slot:  slot,
	}, true
}
