package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
)

// UploadedFile is one file of a bulk import.
type UploadedFile struct {
	Name string
	Data []byte
}

// ParseImageName reads a pioneer out of a file named
// Last_First[_Middle]_party_grade.ext.
func ParseImageName(name string) (models.UserCreate, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) != 4 && len(parts) != 5 {
		return models.UserCreate{}, invalid("%s: expected Last_First[_Middle]_party_grade", name)
	}

	n := len(parts)
	party, err := strconv.Atoi(parts[n-2])
	if err != nil {
		return models.UserCreate{}, invalid("%s: party %q is not a number", name, parts[n-2])
	}
	grade, err := strconv.Atoi(parts[n-1])
	if err != nil {
		return models.UserCreate{}, invalid("%s: grade %q is not a number", name, parts[n-1])
	}

	u := models.UserCreate{
		LastName:  parts[0],
		FirstName: parts[1],
		Party:     party,
		Grade:     grade,
	}
	if n == 5 {
		u.MiddleName = parts[2]
	}
	if u.LastName == "" || u.FirstName == "" {
		return models.UserCreate{}, invalid("%s: first and last name are required", name)
	}
	return u, nil
}

// ImportFromImages creates a pioneer per photo and makes the photo their
// avatar. A bad file is reported and skipped.
func (s *Service) ImportFromImages(ctx context.Context, actor models.User, files []UploadedFile) (models.ImportResult, error) {
	if !actor.Superuser {
		return models.ImportResult{}, ErrForbidden
	}

	result := models.ImportResult{ImportedUsers: []string{}, Errors: []string{}}
	for _, f := range files {
		in, err := ParseImageName(f.Name)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		var user models.User
		err = s.store.Atomic(ctx, func(store repositories.Store) error {
			if user, err = s.createUser(ctx, store, in); err != nil {
				return err
			}
			if user.Avatar, err = s.avatars.Save(user.Username, bytes.NewReader(f.Data)); err != nil {
				return err
			}
			_, err = store.Users().Save(ctx, user)
			return err
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		result.ImportedUsers = append(result.ImportedUsers, user.Username)
	}

	result.Message = fmt.Sprintf("Successfully imported %d users", len(result.ImportedUsers))
	zlog.Info("users imported from images",
		zap.Int("imported", len(result.ImportedUsers)),
		zap.Int("failed", len(result.Errors)))
	return result, nil
}

var csvColumns = []string{"username", "first_name", "last_name", "middle_name", "party", "grade", "is_staff", "is_superuser"}

// ImportFromCSV creates an account per row. Rows are numbered from 2, the
// header being row 1. Missing usernames are generated from the name.
func (s *Service) ImportFromCSV(ctx context.Context, actor models.User, r io.Reader) (models.ImportResult, error) {
	if !actor.Superuser {
		return models.ImportResult{}, ErrForbidden
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return models.ImportResult{}, invalid("unreadable CSV header: %v", err)
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"first_name", "last_name"} {
		if _, ok := columns[required]; !ok {
			return models.ImportResult{}, invalid("CSV header lacks %s, expected %s", required, strings.Join(csvColumns, ","))
		}
	}

	result := models.ImportResult{ImportedUsers: []string{}, Errors: []string{}}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row, err))
			continue
		}

		in, err := csvUser(record, columns)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row, err))
			continue
		}
		user, err := s.createUser(ctx, s.store, in)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row, err))
			continue
		}
		result.ImportedUsers = append(result.ImportedUsers, user.Username)
	}

	result.Message = fmt.Sprintf("Successfully imported %d users", len(result.ImportedUsers))
	zlog.Info("users imported from csv",
		zap.Int("imported", len(result.ImportedUsers)),
		zap.Int("failed", len(result.Errors)))
	return result, nil
}

func csvUser(record []string, columns map[string]int) (models.UserCreate, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	number := func(name string) (int, error) {
		v := field(name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s %q is not a number", name, v)
		}
		return n, nil
	}

	party, err := number("party")
	if err != nil {
		return models.UserCreate{}, err
	}
	grade, err := number("grade")
	if err != nil {
		return models.UserCreate{}, err
	}
	return models.UserCreate{
		Username:   field("username"),
		FirstName:  field("first_name"),
		LastName:   field("last_name"),
		MiddleName: field("middle_name"),
		Party:      party,
		Grade:      grade,
		Staff:      truthy(field("is_staff")),
		Superuser:  truthy(field("is_superuser")),
	}, nil
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	}
	return false
}
