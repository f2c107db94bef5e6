package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Post{},
		&PostFile{},
		&PostHistory{},
		&Setting{},
		&Banner{},
		&ExchangeRate{},
		&DeletedFile{},
	}
}
