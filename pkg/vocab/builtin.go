package vocab

// DefaultDialect is the vocabulary used when none is configured.
const DefaultDialect = "ansi"

// ansiKeywords are the core keywords every dialect shares.
var ansiKeywords = []string{
	"all", "alter", "and", "any", "as", "asc", "between", "by", "case", "cast",
	"create", "cross", "current", "delete", "desc", "distinct", "drop", "else",
	"end", "except", "exists", "false", "filter", "first", "following", "from",
	"full", "group", "groups", "having", "in", "inner", "insert", "intersect",
	"into", "is", "join", "last", "lateral", "left", "like", "limit", "not",
	"null", "nulls", "offset", "on", "or", "order", "outer", "over",
	"partition", "preceding", "range", "recursive", "right", "row", "rows",
	"select", "set", "table", "then", "true", "unbounded", "union", "update",
	"using", "values", "view", "when", "where", "window", "with", "within",
}

var duckDBKeywords = []string{
	"qualify", "ilike", "asof", "positional", "pivot", "unpivot", "for",
	"exclude", "replace", "rename", "semi", "anti", "macro", "pragma",
	"install", "load", "attach", "detach", "copy", "describe", "summarize",
}

var postgresKeywords = []string{
	"ilike", "returning", "array", "asymmetric", "authorization", "binary",
	"both", "check", "collate", "column", "constraint", "default",
	"deferrable", "do", "fetch", "for", "foreign", "freeze", "grant",
	"initially", "isnull", "leading", "natural", "notnull", "only",
	"overlaps", "placing", "primary", "references", "similar", "some",
	"symmetric", "to", "trailing", "unique", "variadic", "verbose",
}

var snowflakeKeywords = []string{
	"qualify", "ilike", "rlike", "regexp", "tablesample", "sample", "flatten",
	"match_recognize", "pivot", "unpivot", "connect", "start", "minus",
	"sequence", "stage", "warehouse", "clone",
}

var databricksKeywords = []string{
	"qualify", "ilike", "rlike", "regexp", "div", "semi", "anti", "lateral",
	"tablesample", "bucket", "percent", "pivot", "unpivot", "cluster",
	"distribute", "sort", "optimize", "zorder", "merge", "matched",
}

func init() {
	ansi := NewSet(ansiKeywords...)
	Register(&Vocabulary{Name: "ansi", Description: "ANSI SQL core keywords", Keywords: ansi})
	Register(&Vocabulary{Name: "duckdb", Description: "DuckDB", Keywords: ansi.With(duckDBKeywords...)})
	Register(&Vocabulary{Name: "postgres", Description: "PostgreSQL", Keywords: ansi.With(postgresKeywords...)})
	Register(&Vocabulary{Name: "snowflake", Description: "Snowflake", Keywords: ansi.With(snowflakeKeywords...)})
	Register(&Vocabulary{Name: "databricks", Description: "Databricks SQL", Keywords: ansi.With(databricksKeywords...)})
}
