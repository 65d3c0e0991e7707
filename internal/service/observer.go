package service

// Observer receives service events. The metrics recorder implements it.
type Observer interface {
	FoodRecordCreated(exceeded, lookedUp bool)
	CalorieLookup(provider string, err error)
	Login(outcome string)
}

type nopObserver struct{}

func (nopObserver) FoodRecordCreated(bool, bool) {}
func (nopObserver) CalorieLookup(string, error) {}
func (nopObserver) Login(string) {}
