package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/aligner/pkg/usecase"
)

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	gt.Value(t, usecase.ErrMappingFailed).NotNil()
	gt.Value(t, usecase.ErrRunHasFailures).NotNil()
	gt.Bool(t, errors.Is(usecase.ErrMappingFailed, usecase.ErrRunHasFailures)).False()
}
