package nexus

import (
	"bytes"
	"encoding/xml"

	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
	"golang.org/x/xerrors"
)

// searchNGResponse is the Lucene search document of Nexus 2.
// cf. https://repository.sonatype.org/nexus-indexer-lucene-plugin/default/docs/el_ns0_searchNGResponse.html
type searchNGResponse struct {
	XMLName    xml.Name         `xml:"searchNGResponse"`
	TotalCount int              `xml:"totalCount"`
	Artifacts  []searchArtifact `xml:"data>artifact"`
}

type searchArtifact struct {
	GroupID      string        `xml:"groupId"`
	ArtifactID   string        `xml:"artifactId"`
	Version      string        `xml:"version"`
	ArtifactHits []artifactHit `xml:"artifactHits>artifactHit"`
}

type artifactHit struct {
	RepositoryID  string         `xml:"repositoryId"`
	ArtifactLinks []artifactLink `xml:"artifactLinks>artifactLink"`
}

type artifactLink struct {
	Classifier string `xml:"classifier"`
	Extension  string `xml:"extension"`
}

// Disambiguate returns the extension of every asset of the single matching
// artifact, in document order.
func Disambiguate(body []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.CharsetReader = charset.NewReaderLabel

	var resp searchNGResponse
	if err := decoder.Decode(&resp); err != nil {
		return nil, xerrors.Errorf("unable to parse search response XML: %w", err)
	}

	if resp.TotalCount != 1 || len(resp.Artifacts) != 1 {
		return nil, xerrors.Errorf("%w (total count: %d)", ErrMultipleResults, resp.TotalCount)
	}

	hits := resp.Artifacts[0].ArtifactHits
	extensions := lo.FlatMap(hits, func(hit artifactHit, _ int) []string {
		links := lo.Filter(hit.ArtifactLinks, func(l artifactLink, _ int) bool {
			return l.Extension != ""
		})
		return lo.Map(links, func(l artifactLink, _ int) string {
			return l.Extension
		})
	})
	if len(extensions) == 0 {
		return nil, xerrors.Errorf("search result has no assets: %w", ErrNotFound)
	}
	return extensions, nil
}
