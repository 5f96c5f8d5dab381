package resultset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsWireOrder(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"zeta":1,"alpha":"a","mid":null}`), &rec))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, rec.Keys())
	v, ok := rec.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, json.Number("1"), v)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":1,"alpha":"a","mid":null}`, string(out))
	assert.Equal(t, `{"zeta":1,"alpha":"a","mid":null}`, string(out))
}

func TestRecordDuplicateKey(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":2,"a":3}`), &rec))

	assert.Equal(t, []string{"a", "b"}, rec.Keys())
	v, _ := rec.Get("a")
	assert.Equal(t, json.Number("3"), v)
}

func TestRecordRejectsNonObject(t *testing.T) {
	var rec Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &rec))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		ok       bool
		rows     int
		message  string
		query    string
		rowCount int
		wantErr  bool
	}{
		{
			name:     "success with rows",
			body:     `{"status":"success","query":"SELECT 1 AS n","row_count":1,"message":[{"n":1}]}`,
			ok:       true,
			rows:     1,
			query:    "SELECT 1 AS n",
			rowCount: 1,
		},
		{
			name:  "success without data",
			body:  `{"status":"success","query":"UPDATE t SET x=1","row_count":0,"message":"Query executed successfully (no data returned)"}`,
			ok:    true,
			query: "UPDATE t SET x=1",
			// message text is kept but not shown for successes
			message: "Query executed successfully (no data returned)",
		},
		{
			name:    "domain error with query",
			body:    `{"status":"error","message":"no such table: x","query":"SELECT * FROM x"}`,
			message: "no such table: x",
			query:   "SELECT * FROM x",
		},
		{
			name:    "domain error without query",
			body:    `{"status":"error","message":"Empty question"}`,
			message: "Empty question",
		},
		{name: "malformed", body: `{"status":`, wantErr: true},
		{name: "missing status", body: `{"message":"x"}`, wantErr: true},
		{name: "numeric message", body: `{"status":"error","message":42}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Decode([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, resp.OK())
			assert.Len(t, resp.Rows, tt.rows)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, tt.query, resp.Query)
			assert.Equal(t, tt.rowCount, resp.RowCount)
		})
	}
}

func TestEncodeRoundTripsRows(t *testing.T) {
	in := &Response{
		Status:   StatusSuccess,
		Query:    "SELECT b, a FROM t",
		RowCount: 1,
		Rows:     []Record{{{Name: "b", Value: "x"}, {Name: "a", Value: nil}}},
	}
	body, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, out.Rows[0].Keys())
}

func TestRender(t *testing.T) {
	var rows []Record
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":1,"name":"ann","score":1.50,"active":true,"note":null},
		{"id":2,"name":null,"score":2,"active":false,"note":{"k":"v"}},
		{"name":"no id"}
	]`), &rows))

	table := Render(rows)

	assert.Equal(t, []string{"id", "name", "score", "active", "note"}, table.Columns)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"1", "ann", "1.50", "true", "NULL"}, table.Rows[0])
	assert.Equal(t, []string{"2", "NULL", "2", "false", `{"k":"v"}`}, table.Rows[1])
	assert.Equal(t, []string{"", "no id", "", "", ""}, table.Rows[2])
}

func TestRenderEmpty(t *testing.T) {
	assert.True(t, Render(nil).Empty())
}

func TestRenderDoesNotEscape(t *testing.T) {
	rows := []Record{{{Name: "<b>col</b>", Value: "<script>alert(1)</script>"}}}
	table := Render(rows)
	assert.Equal(t, "<b>col</b>", table.Columns[0])
	assert.Equal(t, "<script>alert(1)</script>", table.Rows[0][0])
}
