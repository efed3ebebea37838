package dap

import (
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// CheckSemantics validates the structure of v. Every variable needs a name
// and every container needs uniquely named members; arrays need a template
// and grids need a well-formed array and map set. With all set the check
// descends into every member; otherwise only v itself is checked.
//
// Construction never runs this check implicitly. Callers run it once the
// declaration is complete, before printing or transferring it.
func CheckSemantics(v Variable, all bool) error {
	if v.Name() == "" {
		if v.Kind() == KindDataset {
			return daperrors.New(daperrors.ErrorTypeBadSemantics, "a dataset must have a name")
		}
		return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "every variable must have a name (found an unnamed %s)", v.Kind())
	}

	switch x := v.(type) {
	case *Scalar:
		return nil
	case *Grid:
		return x.checkSemantics(all)
	case *Array:
		if x.template == nil {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "array %q has no element type", x.name)
		}
		if all {
			return CheckSemantics(x.template, true)
		}
		return nil
	case *List:
		if x.template == nil {
			return daperrors.Newf(daperrors.ErrorTypeBadSemantics, "list %q has no element type", x.name)
		}
		if all {
			return CheckSemantics(x.template, true)
		}
		return nil
	case Container:
		if err := CheckUniqueNames(x); err != nil {
			return err
		}
		if all {
			for _, m := range x.Members() {
				if err := CheckSemantics(m, true); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return daperrors.Newf(daperrors.ErrorTypeInternal, "unknown variable type %T", v)
	}
}

// CheckAttributeNames fails if a container carries an attribute with the
// same name as one of its members, recursively. A DAS that mixes the two
// cannot be merged back onto the declaration unambiguously.
func CheckAttributeNames(v Variable) error {
	var err error
	Walk(v, func(x Variable) bool {
		if err != nil {
			return false
		}
		c, ok := x.(Container)
		if !ok || !x.base().hasOwnAttributes() {
			return true
		}
		if _, isArray := x.(*Array); isArray {
			return true
		}
		attrs := x.base().attrs
		for _, m := range c.Members() {
			if _, lookupErr := attrs.Entry(m.Name()); lookupErr == nil {
				err = daperrors.Newf(daperrors.ErrorTypeBadSemantics,
					"%q has both a member and an attribute named %q", x.Name(), m.Name()).
					WithDetail("container", x.Name()).
					WithDetail("name", m.Name())
				return false
			}
		}
		return true
	})
	return err
}
