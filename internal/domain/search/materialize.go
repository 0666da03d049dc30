package search

import "fmt"

// MatchQuery builds the SELECT that finds every media_item currently
// matching a compiled clause, joined against media_file so that Field
// clauses may reference file-derived columns as well as media_item's
// own. Parameters start at $1.
func MatchQuery(catalog string, root Clause) (sql string, args []any, err error) {
	filter, filterArgs, err := Compile(catalog, root)
	if err != nil {
		return "", nil, err
	}
	sql = fmt.Sprintf(`
		SELECT DISTINCT mi.id
		FROM media_item AS mi
		LEFT JOIN media_file AS mf ON mf.id = mi.media_file
		WHERE %s`, filter)
	return sql, filterArgs, nil
}

// UpsertMembershipSQL inserts one matched media id into media_search,
// ignoring a row already present. Callers execute it once per matched
// id with the bind params (media id, search id, catalog).
const UpsertMembershipSQL = `
	INSERT INTO media_search (media, search, catalog, added)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (media, search) DO NOTHING`

// DeleteStaleMembershipSQL removes media_search rows for a search that
// no longer match, given the freshly computed set of matching ids.
const DeleteStaleMembershipSQL = `
	DELETE FROM media_search
	WHERE search = $1 AND catalog = $2 AND NOT (media = ANY($3))`
