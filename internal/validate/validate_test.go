package validate

import (
	"testing"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentForm struct {
	SchoolID string            `json:"school_id" validate:"required,known_school"`
	Student  model.StudentInfo `json:"student_info"`
	Amount   float64           `json:"amount" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	valid := paymentForm{
		SchoolID: model.DefaultSchoolID,
		Student:  model.StudentInfo{Name: "Asha", ID: "S-1", Email: "asha@example.com"},
		Amount:   2000,
	}

	tests := []struct {
		name       string
		mutate     func(*paymentForm)
		wantFields []string
	}{
		{
			name:   "valid",
			mutate: func(*paymentForm) {},
		},
		{
			name:       "blank student name",
			mutate:     func(f *paymentForm) { f.Student.Name = "   " },
			wantFields: []string{"name"},
		},
		{
			name:       "unknown school",
			mutate:     func(f *paymentForm) { f.SchoolID = "nope" },
			wantFields: []string{"school_id"},
		},
		{
			name: "several failures",
			mutate: func(f *paymentForm) {
				f.Amount = 0
				f.Student.Email = "not-an-email"
			},
			wantFields: []string{"amount", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)

			err := Struct(form)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidInput)

			var fieldErrs FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			for _, field := range tt.wantFields {
				assert.Contains(t, fieldErrs, field)
			}
			assert.Len(t, fieldErrs, len(tt.wantFields))
		})
	}
}

func TestStruct_Messages(t *testing.T) {
	err := Struct(paymentForm{
		SchoolID: "nope",
		Student:  model.StudentInfo{Name: " ", ID: "S-1", Email: "a@b.co"},
		Amount:   1,
	})

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "name cannot be blank", fieldErrs["name"])
	assert.Equal(t, "school_id is not a known school", fieldErrs["school_id"])
	assert.Equal(t, "name cannot be blank; school_id is not a known school", err.Error())
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("a@b.co", "email"))
	assert.Error(t, Var("  ", "notblank"))
}
