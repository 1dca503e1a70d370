package coverage

import (
	"encoding/json"
	"encoding/xml"
	"io"
)

// coberturaReport mirrors the subset of Cobertura XML needed for line hits.
type coberturaReport struct {
	Packages []struct {
		Classes []struct {
			Filename string `xml:"filename,attr"`
			Lines    struct {
				Line []struct {
					Number int `xml:"number,attr"`
					Hits   int `xml:"hits,attr"`
				} `xml:"line"`
			} `xml:"lines"`
		} `xml:"class"`
	} `xml:"packages>package"`
}

// ParseCobertura decodes a Cobertura XML coverage report into FileCoverage
// records, one per <class filename=...>.
func ParseCobertura(r io.Reader) ([]FileCoverage, error) {
	var report coberturaReport

	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return nil, err
	}

	var files []FileCoverage

	for _, pkg := range report.Packages {
		for _, cls := range pkg.Classes {
			fc := FileCoverage{Path: cls.Filename}

			for _, ln := range cls.Lines.Line {
				fc.Lines = append(fc.Lines, LineCoverage{Line: ln.Number, Hits: ln.Hits})
			}

			files = append(files, fc)
		}
	}

	return files, nil
}

// jacocoReport mirrors JaCoCo XML's per-source-file line counters.
type jacocoReport struct {
	Packages []struct {
		Name       string `xml:"name,attr"`
		SourceFiles []struct {
			Name string `xml:"name,attr"`
			Line []struct {
				Number int `xml:"nr,attr"`
				MI     int `xml:"mi,attr"`
				CI     int `xml:"ci,attr"`
			} `xml:"line"`
		} `xml:"sourcefile"`
	} `xml:"package"`
}

// ParseJaCoCo decodes a JaCoCo XML report, treating ci (covered
// instructions) > 0 as a hit and mi (missed instructions) > 0 with ci == 0
// as uncovered.
func ParseJaCoCo(r io.Reader) ([]FileCoverage, error) {
	var report jacocoReport

	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return nil, err
	}

	var files []FileCoverage

	for _, pkg := range report.Packages {
		for _, sf := range pkg.SourceFiles {
			fc := FileCoverage{Path: pkg.Name + "/" + sf.Name}

			for _, ln := range sf.Line {
				hits := 0
				if ln.CI > 0 {
					hits = 1
				}

				fc.Lines = append(fc.Lines, LineCoverage{Line: ln.Number, Hits: hits})
			}

			files = append(files, fc)
		}
	}

	return files, nil
}

// istanbulFile is one file entry in Istanbul's coverage-final.json.
type istanbulFile struct {
	Path         string         `json:"path"`
	StatementMap map[string]struct {
		Start struct {
			Line int `json:"line"`
		} `json:"start"`
		End struct {
			Line int `json:"line"`
		} `json:"end"`
	} `json:"statementMap"`
	S map[string]int `json:"s"`
}

// ParseIstanbul decodes Istanbul/NYC's coverage-final.json, expanding each
// statement's line range by its hit count.
func ParseIstanbul(r io.Reader) ([]FileCoverage, error) {
	var raw map[string]istanbulFile

	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	var files []FileCoverage

	for _, entry := range raw {
		fc := FileCoverage{Path: entry.Path}

		seen := make(map[int]int)

		for id, stmt := range entry.StatementMap {
			hits := entry.S[id]

			for line := stmt.Start.Line; line <= stmt.End.Line; line++ {
				if existing, ok := seen[line]; !ok || hits > existing {
					seen[line] = hits
				}
			}
		}

		for line, hits := range seen {
			fc.Lines = append(fc.Lines, LineCoverage{Line: line, Hits: hits})
		}

		files = append(files, fc)
	}

	return files, nil
}

// ParseCoveragePy decodes coverage.py's Cobertura-compatible XML export,
// reusing the Cobertura parser since both share the same packages>package>
// class>lines>line schema.
func ParseCoveragePy(r io.Reader) ([]FileCoverage, error) {
	return ParseCobertura(r)
}
