package postgis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/writer"
)

func TestConnectionParams(t *testing.T) {
	for _, tc := range []struct {
		conn   string
		params string
		schema string
		prefix string
	}{
		{"postgis://osm@localhost/denver", "dbname='denver' host='localhost' user='osm' sslmode=disable", "import", "osm_"},
		{"postgres://localhost/denver?prefix=den&schema=staging&sslmode=require",
			"dbname='denver' host='localhost' sslmode='require'", "staging", "den_"},
		{"postgis://localhost/osm?schema=it%27s&application_name=osm+export",
			"application_name='osm export' dbname='osm' host='localhost' sslmode=disable", "it's", "osm_"},
		{"dbname=denver prefix=NONE", "dbname=denver sslmode=disable", "import", ""},
		{"dbname=denver schema=public prefix=x_", "dbname=denver sslmode=disable", "public", "x_"},
		{"dbname=denver schema='my schema' sslmode=prefer", "dbname=denver sslmode=prefer", "my schema", "osm_"},
	} {
		t.Run(tc.conn, func(t *testing.T) {
			params, schema, prefix, err := connectionParams(tc.conn)
			require.NoError(t, err)
			assert.Equal(t, tc.params, params)
			assert.Equal(t, tc.schema, schema)
			assert.Equal(t, tc.prefix, prefix)
		})
	}
}

func TestTableSpecSQL(t *testing.T) {
	spec := NewTableSpec("import", "osm_", writer.WaysNodes)
	assert.Equal(t, "osm_ways_nodes", spec.FullName)
	assert.Equal(t, `DROP TABLE IF EXISTS "import"."osm_ways_nodes"`, spec.DropTableSQL())
	assert.Equal(t, `CREATE TABLE "import"."osm_ways_nodes" ("way_id" BIGINT, "node_id" BIGINT, "position" INTEGER)`,
		spec.CreateTableSQL())
	assert.Equal(t, `COPY "import"."osm_ways_nodes" ("way_id", "node_id", "position") FROM STDIN`,
		spec.CopySQL())
	assert.Equal(t, []string{
		`CREATE INDEX "osm_ways_nodes_way_id_idx" ON "import"."osm_ways_nodes" ("way_id")`,
		`CREATE INDEX "osm_ways_nodes_node_id_idx" ON "import"."osm_ways_nodes" ("node_id")`,
	}, spec.IndexSQL())
}

func TestNodesTableColumns(t *testing.T) {
	spec := NewTableSpec("import", "", writer.Nodes)
	assert.Equal(t, `CREATE TABLE "import"."nodes" ("id" BIGINT, "lat" DOUBLE PRECISION, "lon" DOUBLE PRECISION, `+
		`"user" TEXT, "uid" BIGINT, "version" INTEGER, "changeset" BIGINT, "timestamp" TEXT)`,
		spec.CreateTableSQL())
}

func TestNewPostGISTables(t *testing.T) {
	pg, err := newPostGIS(writer.Config{ConnectionParams: "postgis://u@localhost/osm?schema=staging&prefix=den"})
	require.NoError(t, err)
	assert.Equal(t, "staging", pg.Schema)
	assert.Equal(t, "den_", pg.Prefix)
	assert.Equal(t, "dbname='osm' host='localhost' user='u' sslmode=disable", pg.Params)
	assert.Equal(t, `DROP TABLE IF EXISTS "staging"."den_nodes"`, pg.Tables[0].DropTableSQL())
	var names []string
	for _, spec := range pg.Tables {
		names = append(names, spec.FullName)
	}
	assert.Equal(t, []string{"den_nodes", "den_nodes_tags", "den_ways", "den_ways_nodes", "den_ways_tags"}, names)
}

func TestParamFields(t *testing.T) {
	assert.Equal(t, []string{"a='x y'", `b='it\'s'`, "c=1"}, paramFields("a='x y'  b='it\\'s'\tc=1"))
	key, value := paramValue(`b='it\'s'`)
	assert.Equal(t, "b", key)
	assert.Equal(t, "it's", value)
	key, value = paramValue("sslmode")
	assert.Equal(t, "sslmode", key)
	assert.Equal(t, "", value)
}
