package tree

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Statistics is the set of derived figures computed over the whole graph.
// Generation-based figures only cover people reachable from the founder.
type Statistics struct {
	TotalPeople       int                   `json:"totalPeople"`
	Gender            GenderBreakdown       `json:"gender"`
	Status            StatusBreakdown       `json:"status"`
	AgeGroups         AgeGroupBreakdown     `json:"ageGroups"`
	Generations       []GenerationCount     `json:"generations"`
	BirthRates        []GenerationBirthRate `json:"birthRates"`
	TopMaleNames      []NameCount           `json:"topMaleNames"`
	TopFemaleNames    []NameCount           `json:"topFemaleNames"`
	OldestLiving      *AgedPerson           `json:"oldestLiving,omitempty"`
	AverageLifespan   int                   `json:"averageLifespan"`
	MostCommonAddress *AddressCount         `json:"mostCommonAddress,omitempty"`
}

type GenderBreakdown struct {
	Male   int `json:"male"`
	Female int `json:"female"`
}

type StatusBreakdown struct {
	Living   int `json:"living"`
	Deceased int `json:"deceased"`
}

// AgeGroupBreakdown buckets the living by current age
type AgeGroupBreakdown struct {
	UpTo18  int `json:"0-18"`
	UpTo35  int `json:"19-35"`
	UpTo60  int `json:"36-60"`
	Above60 int `json:"60+"`
}

type GenerationCount struct {
	Level int `json:"level"`
	Count int `json:"count"`
}

// GenerationBirthRate is the average number of children per mother within
// one generation, rounded to one decimal.
type GenerationBirthRate struct {
	Level           int     `json:"level"`
	AverageChildren float64 `json:"averageChildren"`
}

type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type AgedPerson struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type AddressCount struct {
	Address string `json:"address"`
	Count   int    `json:"count"`
}

const topNameLimit = 5

// ComputeStatistics derives all statistics from the graph at the given
// moment. Generation figures are indexed from the founder.
func ComputeStatistics(people People, now time.Time) *Statistics {
	stats := &Statistics{
		Generations:    []GenerationCount{},
		BirthRates:     []GenerationBirthRate{},
		TopMaleNames:   []NameCount{},
		TopFemaleNames: []NameCount{},
	}
	if len(people) == 0 {
		return stats
	}

	stats.TotalPeople = len(people)

	totalLifespan := 0
	deceasedWithAge := 0
	addressCounts := map[string]int{}

	for _, p := range people {
		switch p.Gender {
		case GenderMale:
			stats.Gender.Male++
		case GenderFemale:
			stats.Gender.Female++
		}

		if p.IsAlive() {
			stats.Status.Living++
			if age, ok := Age(p.BirthDate, "", now); ok {
				switch {
				case age <= 18:
					stats.AgeGroups.UpTo18++
				case age <= 35:
					stats.AgeGroups.UpTo35++
				case age <= 60:
					stats.AgeGroups.UpTo60++
				default:
					stats.AgeGroups.Above60++
				}
				if stats.OldestLiving == nil || age > stats.OldestLiving.Age {
					stats.OldestLiving = &AgedPerson{Name: p.FullName(), Age: age}
				}
			}
		} else {
			stats.Status.Deceased++
			if age, ok := Age(p.BirthDate, p.DeathDate, now); ok {
				totalLifespan += age
				deceasedWithAge++
			}
		}

		if p.ContactInfo != nil {
			if addr := strings.TrimSpace(p.ContactInfo.Address); addr != "" {
				addressCounts[addr]++
			}
		}
	}

	if deceasedWithAge > 0 {
		stats.AverageLifespan = int(math.Round(float64(totalLifespan) / float64(deceasedWithAge)))
	}
	stats.MostCommonAddress = mostCommonAddress(addressCounts)

	levels := IndexGenerations(people, RootID)
	stats.Generations = generationCounts(levels)
	stats.BirthRates = birthRates(people, levels)
	stats.TopMaleNames = topNames(people, GenderMale)
	stats.TopFemaleNames = topNames(people, GenderFemale)

	return stats
}

func generationCounts(levels map[string]int) []GenerationCount {
	counts := map[int]int{}
	for _, level := range levels {
		counts[level]++
	}
	out := make([]GenerationCount, 0, len(counts))
	for level, count := range counts {
		out = append(out, GenerationCount{Level: level, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// birthRates averages children per mother per generation. A mother is any
// woman with at least one child and a known generation level.
func birthRates(people People, levels map[string]int) []GenerationBirthRate {
	type tally struct {
		children int
		mothers  int
	}
	byLevel := map[int]*tally{}

	for id, p := range people {
		if p.Gender != GenderFemale || len(p.Children) == 0 {
			continue
		}
		level, ok := levels[id]
		if !ok {
			continue
		}
		t := byLevel[level]
		if t == nil {
			t = &tally{}
			byLevel[level] = t
		}
		t.mothers++
		t.children += len(p.Children)
	}

	out := make([]GenerationBirthRate, 0, len(byLevel))
	for level, t := range byLevel {
		avg := math.Round(float64(t.children)/float64(t.mothers)*10) / 10
		out = append(out, GenerationBirthRate{Level: level, AverageChildren: avg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

func topNames(people People, gender Gender) []NameCount {
	counts := map[string]int{}
	for _, p := range people {
		if p.Gender == gender && p.FirstName != "" {
			counts[p.FirstName]++
		}
	}
	out := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topNameLimit {
		out = out[:topNameLimit]
	}
	return out
}

func mostCommonAddress(counts map[string]int) *AddressCount {
	var best *AddressCount
	for addr, count := range counts {
		if best == nil || count > best.Count || (count == best.Count && addr < best.Address) {
			best = &AddressCount{Address: addr, Count: count}
		}
	}
	return best
}

// BirthdaysInMonth lists the living people whose birth month matches the
// given month. Year-only birth dates carry no month and never match.
func BirthdaysInMonth(people People, month time.Month) []*Person {
	var out []*Person
	for _, p := range people {
		if !p.IsAlive() || p.BirthDate == "" {
			continue
		}
		parts := strings.Split(p.BirthDate, "-")
		if len(parts) < 2 {
			continue
		}
		if m, err := time.Parse("01", parts[1]); err == nil && m.Month() == month {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Age computes whole years between a birth date and a death date, or now
// when deathDate is empty. Dates may be "2006-01-02", "2006-01" or "2006";
// missing parts default to January 1st. Returns false when the birth date
// is absent or unparseable.
func Age(birthDate, deathDate string, now time.Time) (int, bool) {
	start, ok := parseFlexibleDate(birthDate)
	if !ok {
		return 0, false
	}
	end := now
	if deathDate != "" {
		end, ok = parseFlexibleDate(deathDate)
		if !ok {
			return 0, false
		}
	}

	age := end.Year() - start.Year()
	if end.Month() < start.Month() ||
		(end.Month() == start.Month() && end.Day() < start.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}

func parseFlexibleDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
