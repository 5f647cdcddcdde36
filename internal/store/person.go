package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/shiftline/internal/model"
)

type PersonStore struct {
	db *sql.DB
}

func NewPersonStore(db *sql.DB) *PersonStore {
	return &PersonStore{db: db}
}

func scanPerson(scanner interface{ Scan(...any) error }) (*model.Person, error) {
	var p model.Person
	err := scanner.Scan(&p.ID, &p.Name, &p.Department, &p.Location, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const personCols = `id, name, department, location, role, created_at, updated_at`

func (s *PersonStore) Create(name, department, location, role string) (*model.Person, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO people (id, name, department, location, role) VALUES (?, ?, ?, ?, ?)`,
		id, name, department, location, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert person: %w", err)
	}
	return s.GetByID(id)
}

func (s *PersonStore) GetByID(id string) (*model.Person, error) {
	row := s.db.QueryRow(`SELECT `+personCols+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PersonStore) List() ([]model.Person, error) {
	rows, err := s.db.Query(`SELECT ` + personCols + ` FROM people ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}
