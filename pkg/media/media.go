// Package media holds the conventions shared by every service that touches
// article images and videos.
package media

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultPublicBase is the host serving uploaded objects.
const DefaultPublicBase = "https://storage.googleapis.com"

// DefaultFolder is used for pages without a folder of their own.
const DefaultFolder = "img_velonews"

var folders = map[string]string{
	"velonews":      "img_velonews",
	"artigos":       "img_artigos",
	"bot_perguntas": "img_bot_perguntas",
	"botPerguntas":  "img_bot_perguntas",
}

// FolderForPage maps a logical page to its image folder.
func FolderForPage(pageID string) string {
	if f, ok := folders[pageID]; ok {
		return f
	}
	return DefaultFolder
}

// KnownFolder reports whether folder is one a page can upload into.
func KnownFolder(folder string) bool {
	for _, f := range folders {
		if f == folder {
			return true
		}
	}
	return false
}

// PublicURL joins base, bucket and object name into the public image URL.
// An empty base means DefaultPublicBase.
func PublicURL(base, bucket, fileName string) string {
	if base == "" {
		base = DefaultPublicBase
	}
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(fileName, "/")
}

// ObjectName recovers the stored object name from a public image URL by
// locating the first known folder segment in its path.
func ObjectName(publicURL string) (string, bool) {
	u, err := url.Parse(publicURL)
	if err != nil || u.Path == "" {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if KnownFolder(part) && i < len(parts)-1 {
			return strings.Join(parts[i:], "/"), true
		}
	}
	return "", false
}

var youTubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|shorts/|embed/)|youtu\.be/)([^&\n?#]{11})`),
	regexp.MustCompile(`youtube\.com/watch\?.*v=([^&\n?#]{11})`),
}

// YouTubeID extracts the 11-character video id from a YouTube URL.
func YouTubeID(url string) (string, bool) {
	for _, re := range youTubePatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// CanonicalVideoURL rewrites any supported YouTube URL to its watch form.
func CanonicalVideoURL(url string) (string, bool) {
	id, ok := YouTubeID(url)
	if !ok {
		return "", false
	}
	return "https://www.youtube.com/watch?v=" + id, true
}
