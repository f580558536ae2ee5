package ioarchive_test

import (
	"archive/zip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/internal/ioarchive"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/errcode"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metaXML = `<?xml version="1.0" encoding="UTF-8"?>
<archive xmlns="http://rs.tdwg.org/dwc/text/">
  <core encoding="UTF-8" fieldsTerminatedBy="\t" linesTerminatedBy="\n"
        ignoreHeaderLines="1" rowType="http://rs.tdwg.org/dwc/terms/Occurrence">
    <files><location>occurrence.txt</location></files>
    <id index="0"/>
    <field index="1" term="http://rs.tdwg.org/dwc/terms/occurrenceID"/>
    <field index="2" term="http://rs.tdwg.org/dwc/terms/scientificName"/>
    <field index="3" term="http://rs.tdwg.org/dwc/terms/eventDate"/>
    <field index="4" term="http://purl.org/dc/terms/modified"/>
    <field term="http://rs.tdwg.org/dwc/terms/country" default="Sweden"/>
  </core>
</archive>`

const occurrenceTxt = "id\toccurrenceID\tscientificName\teventDate\tmodified\n" +
	"1\tocc:1\tParus major\t2023-06-01\t2024-01-01T00:00:00Z\n" +
	"2\tocc:2\tPica \"pica\"\t2023-06-02\t2024-02-01T00:00:00Z\n" +
	"3\tocc:3\tVulpes vulpes\t\t2024-03-01T00:00:00Z\n"

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dwca.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenCoreZip(t *testing.T) {
	path := writeZip(t, map[string]string{
		"meta.xml":       metaXML,
		"occurrence.txt": occurrenceTxt,
	})

	r, err := ioarchive.OpenCore(path)
	require.NoError(t, err)
	defer r.Close()

	rows, err := r.Next(2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0]["id"])
	assert.Equal(t, "Parus major", rows[0]["scientificName"])
	assert.Equal(t, "Sweden", rows[0]["country"])
	assert.Equal(t, `Pica "pica"`, rows[1]["scientificName"])

	rows, err = r.Next(2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, ok := rows[0]["eventDate"]
	assert.False(t, ok, "empty values are skipped")

	rows, err = r.Next(2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOpenCoreDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "export")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "meta.xml"), []byte(metaXML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "occurrence.txt"), []byte(occurrenceTxt), 0644))

	r, err := ioarchive.OpenCore(dir)
	require.NoError(t, err)
	defer r.Close()

	rows, err := r.Next(10)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func enclosedMeta(sep, enclosedBy string) string {
	return `<archive xmlns="http://rs.tdwg.org/dwc/text/">
  <core fieldsTerminatedBy="` + sep + `" fieldsEnclosedBy="` + enclosedBy + `"
        ignoreHeaderLines="1" rowType="http://rs.tdwg.org/dwc/terms/Occurrence">
    <files><location>occurrence.txt</location></files>
    <id index="0"/>
    <field index="1" term="http://rs.tdwg.org/dwc/terms/scientificName"/>
    <field index="2" term="http://rs.tdwg.org/dwc/terms/locality"/>
  </core>
</archive>`
}

func TestOpenCoreEnclosedBy(t *testing.T) {
	tests := []struct {
		msg        string
		meta       string
		core       string
		localities []string
	}{
		{
			msg:  "no enclosing quotes",
			meta: enclosedMeta(`\t`, ""),
			core: "id\tscientificName\tlocality\n" +
				"1\tEsox lucius\t\"Big\" lake shore\n" +
				"2\tPerca fluviatilis\tSmall pond\n" +
				"3\tRutilus rutilus\t\"North\n",
			localities: []string{`"Big" lake shore`, "Small pond", `"North`},
		},
		{
			msg:  "quoted fields",
			meta: enclosedMeta(",", "&quot;"),
			core: "id,scientificName,locality\n" +
				"1,Esox lucius,\"Lake, north shore\"\n" +
				"2,Perca fluviatilis,Small pond\n",
			localities: []string{"Lake, north shore", "Small pond"},
		},
	}

	for _, v := range tests {
		path := writeZip(t, map[string]string{
			"meta.xml":       v.meta,
			"occurrence.txt": v.core,
		})
		r, err := ioarchive.OpenCore(path)
		require.NoError(t, err, v.msg)

		rows, err := r.Next(10)
		require.NoError(t, err, v.msg)
		require.Len(t, rows, len(v.localities), v.msg)
		for i, loc := range v.localities {
			assert.Equal(t, loc, rows[i]["locality"], v.msg)
			assert.Equal(t, fmt.Sprint(i+1), rows[i]["id"], v.msg)
		}
		require.NoError(t, r.Close())
	}
}

func TestOpenCoreErrors(t *testing.T) {
	tests := []struct {
		msg   string
		files map[string]string
	}{
		{"no meta", map[string]string{"occurrence.txt": occurrenceTxt}},
		{"bad meta", map[string]string{"meta.xml": "<archive><core"}},
		{"taxon core", map[string]string{
			"meta.xml": `<archive><core rowType="http://rs.tdwg.org/dwc/terms/Taxon">` +
				`<files><location>taxa.txt</location></files></core></archive>`,
		}},
		{"no core file", map[string]string{"meta.xml": metaXML}},
	}

	for _, v := range tests {
		_, err := ioarchive.OpenCore(writeZip(t, v.files))
		require.Error(t, err, v.msg)
		gnErr, ok := err.(*gn.Error)
		require.True(t, ok, v.msg)
		assert.Equal(t, errcode.HarvestArchiveError, gnErr.Code, v.msg)
	}
}

func TestSimpleTerm(t *testing.T) {
	tests := []struct {
		term, res string
	}{
		{"http://rs.tdwg.org/dwc/terms/scientificName", "scientificName"},
		{"http://purl.org/dc/terms/modified", "modified"},
		{"dwc:eventDate", "eventDate"},
		{"locality", "locality"},
	}
	for _, v := range tests {
		assert.Equal(t, v.res, ioarchive.SimpleTerm(v.term), v.term)
	}
}

func TestFetchLocal(t *testing.T) {
	path := writeZip(t, map[string]string{"meta.xml": metaXML})
	f := ioarchive.NewFetcher(t.TempDir(), config.MinioConfig{})

	res, err := f.Fetch(context.Background(), provider.DataProvider{
		Identifier: "local", Source: path,
	})
	require.NoError(t, err)
	assert.Equal(t, path, res)

	_, err = f.Fetch(context.Background(), provider.DataProvider{
		Identifier: "local", Source: filepath.Join(t.TempDir(), "none.zip"),
	})
	assert.Error(t, err)
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("zip content"))
		}))
	defer srv.Close()

	dir := t.TempDir()
	f := ioarchive.NewFetcher(dir, config.MinioConfig{})
	res, err := f.Fetch(context.Background(), provider.DataProvider{
		Identifier: "remote", Source: srv.URL + "/exports/dwca-latest.zip",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "remote", "dwca-latest.zip"), res)

	data, err := os.ReadFile(res)
	require.NoError(t, err)
	assert.Equal(t, "zip content", string(data))
}

func TestFetchS3NotConfigured(t *testing.T) {
	f := ioarchive.NewFetcher(t.TempDir(), config.MinioConfig{})
	tests := []string{"s3://bucket/exports/dwca.zip", "s3://bucket"}
	for _, v := range tests {
		_, err := f.Fetch(context.Background(), provider.DataProvider{
			Identifier: "s3", Source: v,
		})
		require.Error(t, err, v)
		gnErr, ok := err.(*gn.Error)
		require.True(t, ok, v)
		assert.Equal(t, errcode.HarvestArchiveError, gnErr.Code, v)
	}
}
