package ticketing

// Pure pricing arithmetic. All amounts are integer cents and all percentage
// math uses floor division, so the only rounding loss is the integer
// remainder of the fee split, which stays with the seller.

// MaxResalePrice is the highest price a ticket may be resold for.
func MaxResalePrice(faceValue int64, maxResalePercent int) int64 {
	return faceValue * int64(maxResalePercent) / 100
}

// MinResalePrice is the resale floor, or 0 when minResalePercent is 0.
func MinResalePrice(faceValue int64, minResalePercent int) int64 {
	return faceValue * int64(minResalePercent) / 100
}

// OrganizerFee is the cut of a resale routed to the event organizer.
func OrganizerFee(resalePrice int64, feePercent int) int64 {
	return resalePrice * int64(feePercent) / 100
}

// SellerProceeds is what the seller keeps after the organizer fee.
// feePercent is capped at 100 at collection creation, so the fee can never
// exceed the price.
func SellerProceeds(resalePrice, fee int64) int64 {
	return resalePrice - fee
}
