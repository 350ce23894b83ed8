package employee

import (
	"errors"

	employeeerrors "go-empconnect/internal/employee/errors"

	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, employeeerrors.ErrEmployeeNotFound)
}
