package ioarchive

import (
	"archive/zip"
	"bufio"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gnames/gnsos/pkg/provider/dwca"
)

// meta is the descriptor of a Darwin Core Archive.
type meta struct {
	Core struct {
		RowType           string  `xml:"rowType,attr"`
		Encoding          string  `xml:"encoding,attr"`
		FieldsTerminated  string  `xml:"fieldsTerminatedBy,attr"`
		FieldsEnclosed    *string `xml:"fieldsEnclosedBy,attr"`
		IgnoreHeaderLines int     `xml:"ignoreHeaderLines,attr"`
		Files             struct {
			Location string `xml:"location"`
		} `xml:"files"`
		ID struct {
			Index *int `xml:"index,attr"`
		} `xml:"id"`
		Fields []struct {
			Index   *int   `xml:"index,attr"`
			Term    string `xml:"term,attr"`
			Default string `xml:"default,attr"`
		} `xml:"field"`
	} `xml:"core"`
}

type column struct {
	index int
	term  string
	def   string
}

// rowReader returns fields of the next line of a core file, io.EOF at
// the end.
type rowReader interface {
	Read() ([]string, error)
}

// plainReader splits lines of a core without enclosing quotes. Quotes
// are ordinary characters of values there.
type plainReader struct {
	sc  *bufio.Scanner
	sep string
}

func newPlainReader(r io.Reader, sep rune) *plainReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &plainReader{sc: sc, sep: string(sep)}
}

func (p *plainReader) Read() ([]string, error) {
	for p.sc.Scan() {
		line := p.sc.Text()
		if line == "" {
			continue
		}
		return strings.Split(line, p.sep), nil
	}
	if err := p.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// CoreReader reads rows of the occurrence core of an archive.
type CoreReader struct {
	path    string
	closers []io.Closer
	rows    rowReader
	columns []column
}

// OpenCore opens the occurrence core of a zipped archive or of an
// unpacked archive directory.
func OpenCore(archive string) (*CoreReader, error) {
	info, err := os.Stat(archive)
	if err != nil {
		return nil, FormatError(archive, err)
	}

	var fsys fs.FS
	res := &CoreReader{path: archive}
	if info.IsDir() {
		fsys = os.DirFS(archive)
	} else {
		zr, err := zip.OpenReader(archive)
		if err != nil {
			return nil, FormatError(archive, err)
		}
		res.closers = append(res.closers, zr)
		fsys = zr
	}

	if err = res.open(fsys); err != nil {
		res.Close()
		return nil, FormatError(archive, err)
	}
	return res, nil
}

func (r *CoreReader) open(fsys fs.FS) error {
	metaPath, err := findMeta(fsys)
	if err != nil {
		return err
	}
	data, err := fs.ReadFile(fsys, metaPath)
	if err != nil {
		return err
	}
	var m meta
	if err = xml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("cannot parse meta.xml: %w", err)
	}
	if !strings.HasSuffix(m.Core.RowType, "Occurrence") {
		return fmt.Errorf("core row type %q is not Occurrence", m.Core.RowType)
	}
	if m.Core.Files.Location == "" {
		return errors.New("meta.xml has no core file location")
	}

	if m.Core.ID.Index != nil {
		r.columns = append(r.columns, column{index: *m.Core.ID.Index, term: "id"})
	}
	for _, v := range m.Core.Fields {
		col := column{index: -1, term: SimpleTerm(v.Term), def: v.Default}
		if v.Index != nil {
			col.index = *v.Index
		}
		r.columns = append(r.columns, col)
	}

	corePath := path.Join(path.Dir(metaPath), m.Core.Files.Location)
	f, err := fsys.Open(corePath)
	if err != nil {
		return fmt.Errorf("cannot open core file: %w", err)
	}
	r.closers = append(r.closers, f)

	sep := delimiter(m.Core.FieldsTerminated)
	if quoted(m.Core.FieldsEnclosed) {
		cr := csv.NewReader(f)
		cr.Comma = sep
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.ReuseRecord = true
		r.rows = cr
	} else {
		r.rows = newPlainReader(f, sep)
	}

	for range m.Core.IgnoreHeaderLines {
		if _, err = r.rows.Read(); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

// Next returns up to n rows. An empty result means the core is read to
// the end.
func (r *CoreReader) Next(n int) ([]dwca.Row, error) {
	var res []dwca.Row
	for len(res) < n {
		rec, err := r.rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, FormatError(r.path, err)
		}
		res = append(res, r.row(rec))
	}
	return res, nil
}

func (r *CoreReader) row(rec []string) dwca.Row {
	res := make(dwca.Row, len(r.columns))
	for _, v := range r.columns {
		val := v.def
		if v.index >= 0 && v.index < len(rec) && rec[v.index] != "" {
			val = rec[v.index]
		}
		if val != "" {
			res[v.term] = val
		}
	}
	return res
}

// Close releases files of the archive.
func (r *CoreReader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// SimpleTerm converts a term URI to its simple name, for example
// http://rs.tdwg.org/dwc/terms/scientificName to scientificName.
func SimpleTerm(term string) string {
	if i := strings.LastIndexAny(term, "/#:"); i >= 0 {
		return term[i+1:]
	}
	return term
}

func findMeta(fsys fs.FS) (string, error) {
	if _, err := fs.Stat(fsys, "meta.xml"); err == nil {
		return "meta.xml", nil
	}
	// some archives keep everything in a top directory
	matches, err := fs.Glob(fsys, "*/meta.xml")
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", errors.New("meta.xml not found")
	}
	return filepath.ToSlash(matches[0]), nil
}

func delimiter(s string) rune {
	switch s {
	case "", `\t`, "\t":
		return '\t'
	case ",":
		return ','
	case ";":
		return ';'
	case "|":
		return '|'
	}
	return []rune(s)[0]
}

// quoted tells if fields of a core may be enclosed in quotes. A missing
// fieldsEnclosedBy attribute means the default double quote.
func quoted(enclosedBy *string) bool {
	return enclosedBy == nil || *enclosedBy != ""
}
