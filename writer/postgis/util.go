package postgis

import (
	"database/sql"
	"strings"
	"unicode"

	"github.com/lib/pq"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/log"
)

// paramFields splits key=value connection params at whitespace outside
// of single quoted values.
func paramFields(params string) []string {
	var result []string
	var cur strings.Builder
	quoted, escaped := false, false
	for _, r := range params {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '\'':
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			if cur.Len() > 0 {
				result = append(result, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		result = append(result, cur.String())
	}
	return result
}

// paramValue returns the unquoted value of a key=value param.
// pq.ParseURL quotes all values and escapes ' and \.
func paramValue(param string) (key, value string) {
	key, value, _ = strings.Cut(param, "=")
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		value = value[1 : len(value)-1]
	}
	var b strings.Builder
	escaped := false
	for _, r := range value {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return key, b.String()
}

// splitConnectionParams removes our own schema= and prefix= options from
// key=value connection params. Defaults are "import" and "osm_".
func splitConnectionParams(params string) (rest, schema, prefix string) {
	var parts []string
	for _, p := range paramFields(params) {
		switch key, value := paramValue(p); key {
		case "schema":
			schema = value
		case "prefix":
			prefix = value
		default:
			parts = append(parts, p)
		}
	}
	if schema == "" {
		schema = "import"
	}
	if prefix == "" {
		prefix = "osm_"
	} else if prefix == "NONE" {
		prefix = ""
	} else if prefix[len(prefix)-1] != '_' {
		prefix = prefix + "_"
	}
	return strings.Join(parts, " "), schema, prefix
}

// disableDefaultSsl adds sslmode=disable if no sslmode is set.
func disableDefaultSsl(params string) string {
	for _, p := range paramFields(params) {
		if key, _ := paramValue(p); key == "sslmode" {
			return params
		}
	}
	return strings.TrimSpace(params + " sslmode=disable")
}

// connectionParams converts postgis:// and postgres:// URLs to key=value
// params and returns them with schema and prefix.
func connectionParams(conn string) (params, schema, prefix string, err error) {
	if strings.HasPrefix(conn, "postgis://") {
		conn = strings.Replace(conn, "postgis", "postgres", 1)
	}
	params = conn
	if strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://") {
		params, err = pq.ParseURL(conn)
		if err != nil {
			return "", "", "", err
		}
	}
	params, schema, prefix = splitConnectionParams(params)
	return disableDefaultSsl(params), schema, prefix, nil
}

func rollbackIfTx(tx **sql.Tx) {
	if *tx != nil {
		if err := (*tx).Rollback(); err != nil {
			log.Errorf("rollback failed: %s", err)
		}
		*tx = nil
	}
}
