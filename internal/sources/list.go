package sources

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ralt/debcube/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultArch is used when no architecture is configured
const DefaultArch = "amd64"

// ParseSourceList reads "deb <url> <dist> <component...>" entries and returns one
// Source per component. Comments, deb-src and cdrom entries are skipped.
func ParseSourceList(r io.Reader, listFile, arch string) ([]*models.Source, error) {
	if arch == "" {
		arch = DefaultArch
	}

	var sources []*models.Source

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "deb-src") || strings.HasPrefix(line, "deb cdrom") {
			continue
		}

		entryLine := line
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(strings.ReplaceAll(line, "\"", ""))
		if len(fields) == 0 || fields[0] != "deb" {
			logrus.Debugf("Skipping unsupported entry in %s: %s", listFile, entryLine)
			continue
		}
		fields = skipOptions(fields[1:])

		if len(fields) < 2 {
			logrus.Warnf("Malformed entry in %s: %s", listFile, entryLine)
			continue
		}

		url := normalizeURL(fields[0])
		dist := fields[1]
		components := fields[2:]

		// Flat repositories ("deb <url> ./") have no components
		if strings.HasSuffix(dist, "/") {
			link := url + strings.TrimPrefix(dist, "./") + "Packages.gz"
			sources = append(sources, newSource(listFile, entryLine, url, link, dist, ""))
			continue
		}

		for _, component := range components {
			link := fmt.Sprintf("%sdists/%s/%s/binary-%s/Packages.gz", url, dist, component, arch)
			sources = append(sources, newSource(listFile, entryLine, url, link, dist, component))
		}
	}

	return sources, scanner.Err()
}

// skipOptions drops a leading "[key=value ...]" block
func skipOptions(fields []string) []string {
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "[") {
		return fields
	}
	for i, f := range fields {
		if strings.HasSuffix(f, "]") {
			return fields[i+1:]
		}
	}
	return nil
}

func normalizeURL(url string) string {
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return url
}

func stripScheme(url string) string {
	if _, rest, found := strings.Cut(url, "://"); found {
		return rest
	}
	return url
}

// CacheFilename flattens a remote index location into the local list filename,
// the same naming apt uses under /var/lib/apt/lists.
func CacheFilename(link string) string {
	name := strings.TrimSuffix(stripScheme(link), ".gz")
	return strings.TrimSpace(strings.ReplaceAll(name, "/", "_"))
}

func newSource(listFile, entryLine, url, link, release, component string) *models.Source {
	base := strings.TrimSuffix(stripScheme(url), "/")
	host, _, _ := strings.Cut(base, "/")

	return &models.Source{
		ListFile:  listFile,
		EntryLine: entryLine,
		URL:       url,
		Link:      link,
		Filename:  CacheFilename(link),
		Release:   release,
		Component: component,
		Origin:    strings.ToLower(host),
		OriginURL: strings.ReplaceAll(strings.TrimSuffix(base, "/ubuntu"), "/", "-"),
	}
}
