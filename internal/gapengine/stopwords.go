package gapengine

// Default stop-word sets. Keyed lookups only; the maps are never mutated
// after construction.

func englishStopWords() map[string]bool {
	return wordSet(
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "he",
		"in", "is", "it", "its", "of", "on", "that", "the", "to", "was", "will",
		"with", "would", "you", "your", "we", "they", "them", "their", "this",
		"these", "those", "have", "had", "do", "does", "did", "can", "could",
		"should", "may", "might", "must", "shall", "or", "but",
	)
}

func persianStopWords() map[string]bool {
	return wordSet(
		// Articles, pronouns, conjunctions
		"و", "در", "از", "به", "که", "این", "آن", "با", "برای", "تا", "را", "است",
		"بود", "باشد", "می", "خواهد", "کرد", "کرده", "هم", "نیز", "همچنین", "اما",
		"ولی", "اگر", "چون", "زیرا", "چرا", "کجا", "کی", "چگونه", "چه", "کدام",
		"کسی", "چیزی", "همه", "تمام", "کلی", "بعضی", "برخی", "هر", "هیچ", "نه",
		"نمی", "های", "ها",
		// Conjugated verbs
		"هست", "هستند", "بودند", "باشند", "خواهند", "کردند",
		// Time and place
		"امروز", "دیروز", "فردا", "حالا", "الان", "هفته", "ماه", "سال", "روز",
		"شب", "صبح", "ظهر", "عصر", "داخل", "خارج", "بالا", "پایین", "وسط",
		"کنار", "پشت", "زیر", "روی", "بین", "میان", "دور", "نزدیک", "قبل", "بعد",
		// Generic nouns and adjectives too broad for ranking
		"چیز", "کار", "مورد", "نوع", "گونه", "مدل", "سبک", "روش", "شیوه", "نحوه",
		"خوب", "بد", "بزرگ", "کوچک", "جدید", "قدیمی", "تازه", "سریع", "آسان", "سخت",
	)
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
