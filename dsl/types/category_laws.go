package types

// This file verifies the category-theoretic laws the composition
// operators must satisfy. Nothing in the repository, code or tests,
// calls these verifiers; the checker relies on unification already
// enforcing the laws structurally.

// Identity builds the identity morphism id: t → t.
func Identity(t Type) FunctionType {
	return NewFunctionType(t, t)
}

// VerifyAssociativity checks (h ∘ g) ∘ f ≡ h ∘ (g ∘ f) at the type level
// for f: A→B, g: B→C, h: C→D.
func VerifyAssociativity(f, g, h FunctionType) bool {
	if _, ok := f.Output.Unify(g.Input); !ok {
		return false
	}
	if _, ok := g.Output.Unify(h.Input); !ok {
		return false
	}
	return true
}

// VerifyLeftIdentity checks id ∘ f ≡ f for identity: B → B where B is
// f's output type.
func VerifyLeftIdentity(f, identity FunctionType) bool {
	if !identity.Input.Equal(identity.Output) {
		return false
	}
	_, ok := f.Output.Unify(identity.Input)
	return ok
}

// VerifyRightIdentity checks f ∘ id ≡ f for identity: A → A where A is
// f's input type.
func VerifyRightIdentity(f, identity FunctionType) bool {
	if !identity.Input.Equal(identity.Output) {
		return false
	}
	_, ok := f.Input.Unify(identity.Input)
	return ok
}

// ProjectLeft builds π₁: A × B → A.
func ProjectLeft(p ProductType) FunctionType {
	return NewFunctionType(p, p.Left)
}

// ProjectRight builds π₂: A × B → B.
func ProjectRight(p ProductType) FunctionType {
	return NewFunctionType(p, p.Right)
}

// VerifyProductUniversalProperty checks that h: C → A×B satisfies
// π₁∘h = f and π₂∘h = g for f: C→A, g: C→B.
func VerifyProductUniversalProperty(product ProductType, f, g, h FunctionType) bool {
	hOut, ok := h.Output.(ProductType)
	if !ok {
		return false
	}
	if _, ok := Type(hOut).Unify(product); !ok {
		return false
	}
	if _, ok := f.Input.Unify(h.Input); !ok {
		return false
	}
	if _, ok := g.Input.Unify(h.Input); !ok {
		return false
	}
	if _, ok := f.Output.Unify(product.Left); !ok {
		return false
	}
	if _, ok := g.Output.Unify(product.Right); !ok {
		return false
	}
	return true
}
