package gridgo

// CellValidator vets a proposed cell value before it is committed. A non-nil
// return aborts the write; the engine wraps it in a ConstraintViolationError
// and leaves the prior value unchanged.
type CellValidator interface {
	Validate(newValue any) error
}

// CellTransformer is a validator that may also rewrite the proposed value.
// Transform runs before commit; the returned value is what gets stored.
type CellTransformer interface {
	CellValidator
	Transform(newValue any) (any, error)
}

// ValidatorFunc adapts a plain function to CellValidator.
type ValidatorFunc func(newValue any) error

func (f ValidatorFunc) Validate(newValue any) error { return f(newValue) }

// TransformerFunc adapts a plain function to CellTransformer. Validation is
// implied by the transform itself.
type TransformerFunc func(newValue any) (any, error)

func (f TransformerFunc) Validate(newValue any) error {
	_, err := f(newValue)
	return err
}

func (f TransformerFunc) Transform(newValue any) (any, error) { return f(newValue) }

// applyValidator runs the element's validator capability, preferring the
// transformer path when available.
func applyValidator(v CellValidator, value any) (any, error) {
	if v == nil {
		return value, nil
	}
	if tr, ok := v.(CellTransformer); ok {
		out, err := tr.Transform(value)
		if err != nil {
			return nil, &ConstraintViolationError{Message: err.Error(), cause: err}
		}
		return out, nil
	}
	if err := v.Validate(value); err != nil {
		return nil, &ConstraintViolationError{Message: err.Error(), cause: err}
	}
	return value, nil
}
