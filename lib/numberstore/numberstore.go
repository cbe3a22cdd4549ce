package numberstore

import (
	"context"
	"database/sql"
	"dhapi/lib/timezone"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

const (
	// MaxPerUser is the number of saved combinations kept per user, older
	// ones are dropped on insert.
	MaxPerUser = 30
	MaxNameLen = 30
	lineSize   = 6
	minNumber  = 1
	maxNumber  = 45
)

var ErrInvalidNumbers = errors.New("번호는 1~45 사이의 서로 다른 6개 숫자여야 합니다")
var ErrNameTooLong = fmt.Errorf("이름은 %d자 이하여야 합니다", MaxNameLen)

type Entry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Numbers   []int     `json:"numbers"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db  *sql.DB
	Now func() time.Time
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		Now: timezone.Now,
	}
}

// Normalize validates a combination and returns it sorted.
func Normalize(numbers []int) ([]int, error) {
	if len(numbers) != lineSize {
		return nil, ErrInvalidNumbers
	}
	out := slices.Clone(numbers)
	slices.Sort(out)
	for i, n := range out {
		if n < minNumber || n > maxNumber {
			return nil, ErrInvalidNumbers
		}
		if i > 0 && out[i-1] == n {
			return nil, ErrInvalidNumbers
		}
	}
	return out, nil
}

func (s Store) Create(ctx context.Context, username string, numbers []int, name string) (Entry, error) {
	normalized, err := Normalize(numbers)
	if err != nil {
		return Entry{}, err
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLen {
		return Entry{}, ErrNameTooLong
	}
	createdAt := s.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		"insert into my_lotto_numbers(username, name, numbers, created_at) values (?, ?, ?, ?)",
		username, name, encodeNumbers(normalized), createdAt.Unix(),
	)
	if err != nil {
		return Entry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, err
	}

	_, err = tx.ExecContext(
		ctx,
		`delete from my_lotto_numbers
		where username = ? and id not in (
			select id from my_lotto_numbers where username = ? order by id desc limit ?
		)`,
		username, username, MaxPerUser,
	)
	if err != nil {
		return Entry{}, err
	}

	err = tx.Commit()
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:        id,
		Name:      name,
		Numbers:   normalized,
		CreatedAt: time.Unix(createdAt.Unix(), 0).In(timezone.Location),
	}, nil
}

// List returns the user's saved combinations, newest first.
func (s Store) List(ctx context.Context, username string) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select id, name, numbers, created_at from my_lotto_numbers where username = ? order by id desc limit ?",
		username, MaxPerUser,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry     Entry
			numbers   string
			createdAt int64
		)
		err := rows.Scan(&entry.ID, &entry.Name, &numbers, &createdAt)
		if err != nil {
			return nil, err
		}
		entry.Numbers, err = decodeNumbers(numbers)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", entry.ID, err)
		}
		entry.CreatedAt = time.Unix(createdAt, 0).In(timezone.Location)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Delete removes one of the user's entries, it reports false when no
// entry with that id belongs to them.
func (s Store) Delete(ctx context.Context, username string, id int64) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		"delete from my_lotto_numbers where username = ? and id = ?",
		username, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func encodeNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func decodeNumbers(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
