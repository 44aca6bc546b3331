package scope

import (
	"testing"

	"github.com/sqlcheck/sqlcheck/pkg/catalog"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
)

func mustCatalog(t *testing.T, ddl string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse(ddl)
	if err != nil {
		t.Fatalf("unexpected schema parse error: %v", err)
	}
	return cat
}

const twoTableSchema = `
CREATE TABLE users (id integer PRIMARY KEY, name text NOT NULL);
CREATE TABLE profiles (id integer PRIMARY KEY, user_id integer NOT NULL, bio text);
`

func TestUnqualifiedLookupAmbiguous(t *testing.T) {
	cat := mustCatalog(t, `
CREATE TABLE a (id integer PRIMARY KEY, shared text);
CREATE TABLE b (id integer PRIMARY KEY, shared text);
`)
	items := []sqlparse.FromItem{
		&sqlparse.TableRef{Name: "a", Alias: "a"},
		&sqlparse.TableRef{Name: "b", Alias: "b"},
	}
	s, err := BuildFrom(nil, cat, items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = s.ResolveUnqualified("shared")
	if err == nil {
		t.Fatalf("expected AmbiguousColumn, got success")
	}
	if kind, _ := sqlerr.KindOf(err); kind != sqlerr.AmbiguousColumn {
		t.Errorf("got kind %v, want AmbiguousColumn", kind)
	}
}

func TestUnqualifiedLookupUnknown(t *testing.T) {
	cat := mustCatalog(t, twoTableSchema)
	items := []sqlparse.FromItem{&sqlparse.TableRef{Name: "users", Alias: "users"}}
	s, err := BuildFrom(nil, cat, items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = s.ResolveUnqualified("nope")
	if err == nil {
		t.Fatalf("expected UnknownColumn, got success")
	}
	if kind, _ := sqlerr.KindOf(err); kind != sqlerr.UnknownColumn {
		t.Errorf("got kind %v, want UnknownColumn", kind)
	}
}

func TestLeftJoinMarksRightNullable(t *testing.T) {
	cat := mustCatalog(t, twoTableSchema)
	join := &sqlparse.JoinItem{
		Type:  sqlparse.JoinLeft,
		Left:  &sqlparse.TableRef{Name: "users", Alias: "u"},
		Right: &sqlparse.TableRef{Name: "profiles", Alias: "p"},
	}
	s, err := BuildFrom(nil, cat, []sqlparse.FromItem{join}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	uName, err := s.ResolveQualified("u", "name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uName.Nullable {
		t.Errorf("left side of LEFT JOIN should not become nullable")
	}
	pBio, err := s.ResolveQualified("p", "bio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pBio.Nullable {
		t.Errorf("right side of LEFT JOIN must be nullable regardless of catalog nullability")
	}
}

func TestFullJoinMarksBothSidesNullable(t *testing.T) {
	cat := mustCatalog(t, twoTableSchema)
	join := &sqlparse.JoinItem{
		Type:  sqlparse.JoinFull,
		Left:  &sqlparse.TableRef{Name: "users", Alias: "u"},
		Right: &sqlparse.TableRef{Name: "profiles", Alias: "p"},
	}
	s, err := BuildFrom(nil, cat, []sqlparse.FromItem{join}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	uName, err := s.ResolveQualified("u", "name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !uName.Nullable {
		t.Errorf("FULL OUTER JOIN must mark the left side nullable too")
	}
}

func TestCTEShadowsCatalogTable(t *testing.T) {
	cat := mustCatalog(t, `CREATE TABLE users (id integer PRIMARY KEY, name text NOT NULL);`)
	parent := New(nil)
	parent.AddCTE("users", &ResultDescriptor{Fields: []Field{{Name: "id", Nullable: false}}})

	s, err := BuildFrom(parent, cat, []sqlparse.FromItem{&sqlparse.TableRef{Name: "users", Alias: "users"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.ResolveQualified("users", "id"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.ResolveQualified("users", "name"); err == nil {
		t.Errorf("expected the catalog-only column name to be hidden by the CTE")
	}
	if _, ok := s.LookupCTE("users"); !ok {
		t.Errorf("expected CTE named users to be registered")
	}
}

func TestParameterArityTracksAcrossNestedScopes(t *testing.T) {
	root := New(nil)
	child := New(root)
	root.NoteParam(1)
	child.NoteParam(3)
	if root.MaxParam() != 3 {
		t.Errorf("got max param %d, want 3", root.MaxParam())
	}
	missing := root.MissingParams()
	if len(missing) != 1 || missing[0] != 2 {
		t.Errorf("got missing params %v, want [2]", missing)
	}
}
