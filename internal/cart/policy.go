package cart

// MergePolicy decides the items a user ends up with when an anonymous
// cart is handed to an account that already had one.
type MergePolicy interface {
	Merge(userItems, sessionItems []CartItem) []CartItem
}

// OverridePolicy keeps the session cart as is and discards the user's
// previous items. This is the default.
type OverridePolicy struct{}

func (OverridePolicy) Merge(_, sessionItems []CartItem) []CartItem {
	return sessionItems
}

// MergeItemsPolicy keeps both carts' lines. Quantities of a product in
// both are summed; the session line's snapshot wins.
type MergeItemsPolicy struct{}

func (MergeItemsPolicy) Merge(userItems, sessionItems []CartItem) []CartItem {
	out := make([]CartItem, 0, len(userItems)+len(sessionItems))
	out = append(out, sessionItems...)

	for _, u := range userItems {
		found := false
		for i := range out {
			if out[i].ProductID == u.ProductID {
				out[i].Quantity += u.Quantity
				found = true
				break
			}
		}
		if !found {
			out = append(out, u)
		}
	}

	return out
}
