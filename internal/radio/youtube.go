package radio

import (
	"net/url"
	"strings"
)

// videoIDLen is the fixed length of a YouTube video ID.
const videoIDLen = 11

// ExtractVideoID pulls the video ID out of the usual YouTube URL shapes
// (watch?v=, youtu.be/, /embed/, /shorts/) or accepts a bare ID. Returns
// false when nothing that looks like a video ID can be found.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if isVideoID(raw) {
		return raw, true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if isVideoID(id) {
			return id, true
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); isVideoID(id) {
			return id, true
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/", "/v/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
				if isVideoID(id) {
					return id, true
				}
			}
		}
	}

	return "", false
}

func isVideoID(s string) bool {
	if len(s) != videoIDLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
