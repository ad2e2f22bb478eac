package generator

import (
	"context"
	"math/rand/v2"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("Name", "Yield a random full name, optionally gendered.", newName)
	register("FirstName", "Yield a random first name, optionally gendered.", newFirstName)
	register("LastName", "Yield a random last name.", newLastName)
	register("Email", "Yield a random email address.", newEmail)
}

// gofakeit draws first names from a single ungendered pool, so the gender
// param is served from these lists; FirstName() still covers the ungendered
// case.
var maleFirstNames = []string{
	"James", "John", "Robert", "Michael", "William", "David", "Richard",
	"Joseph", "Thomas", "Charles", "Christopher", "Daniel", "Matthew",
	"Anthony", "Donald", "Mark", "Paul", "Steven", "Andrew", "Kenneth",
	"George", "Joshua", "Kevin", "Brian", "Edward", "Ronald", "Timothy",
	"Jason", "Jeffrey", "Ryan", "Jacob", "Gary", "Nicholas", "Eric",
	"Stephen", "Jonathan", "Larry", "Justin", "Scott", "Brandon",
}

var femaleFirstNames = []string{
	"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara",
	"Susan", "Jessica", "Sarah", "Karen", "Nancy", "Margaret", "Lisa",
	"Betty", "Dorothy", "Sandra", "Ashley", "Kimberly", "Donna", "Emily",
	"Carol", "Michelle", "Amanda", "Melissa", "Deborah", "Stephanie",
	"Rebecca", "Laura", "Helen", "Sharon", "Cynthia", "Kathleen", "Amy",
	"Shirley", "Angela", "Anna", "Ruth", "Brenda", "Pamela", "Nicole",
}

// genderOption holds the optional gender param, which may be 'M', 'F',
// null, or an expression resolved on every call.
type genderOption struct {
	gender any
}

func (o *genderOption) parse(p *params) error {
	raw, _, err := p.takeExpr("gender")
	if err != nil {
		return err
	}
	o.gender = raw
	return nil
}

func (o *genderOption) resolve(b *base, vars expr.Vars) (string, error) {
	raw := o.gender
	if e, isExpr := raw.(expr.Expression); isExpr {
		var err error
		if raw, err = e.Evaluate(vars); err != nil {
			return "", err
		}
	}
	switch raw {
	case nil, "":
		return "", nil
	case "M", "F":
		return raw.(string), nil
	}
	return "", b.generationf("Gender must be either 'M', 'F' or null. Got '%v'", raw)
}

func (o *genderOption) firstName(f *gofakeit.Faker, gender string) string {
	switch gender {
	case "M":
		return maleFirstNames[rand.IntN(len(maleFirstNames))]
	case "F":
		return femaleFirstNames[rand.IntN(len(femaleFirstNames))]
	}
	return f.FirstName()
}

// fitLength retries produce until its result fits maxLen (0 disables the
// limit).
func fitLength(b *base, maxLen int64, produce func() string) (string, error) {
	for range maxTries(maxLen) {
		s := produce()
		if maxLen <= 0 || int64(len(s)) <= maxLen {
			return s, nil
		}
	}
	return "", b.generationf("could not generate a value of at most %d characters in %d tries", maxLen, maxUniqueTries)
}

func maxTries(maxLen int64) int {
	if maxLen <= 0 {
		return 1
	}
	return maxUniqueTries
}

// Name yields full names.
type Name struct {
	base
	genderOption
	maxLen int64
	faker  *gofakeit.Faker
}

func newName(cfg *Config) (Generator, error) {
	g := &Name{faker: gofakeit.New(0)}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if err := g.genderOption.parse(p); err != nil {
		return nil, err
	}
	if g.maxLen, err = p.takeInt("max_length", 0); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *Name) next(ctx context.Context, vars expr.Vars) (any, error) {
	gender, err := g.resolve(&g.base, vars)
	if err != nil {
		return nil, err
	}
	return fitLength(&g.base, g.maxLen, func() string {
		return g.firstName(g.faker, gender) + " " + g.faker.LastName()
	})
}

// FirstName yields first names.
type FirstName struct {
	base
	genderOption
	maxLen int64
	faker  *gofakeit.Faker
}

func newFirstName(cfg *Config) (Generator, error) {
	g := &FirstName{faker: gofakeit.New(0)}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if err := g.genderOption.parse(p); err != nil {
		return nil, err
	}
	if g.maxLen, err = p.takeInt("max_length", 0); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *FirstName) next(ctx context.Context, vars expr.Vars) (any, error) {
	gender, err := g.resolve(&g.base, vars)
	if err != nil {
		return nil, err
	}
	return fitLength(&g.base, g.maxLen, func() string {
		return g.firstName(g.faker, gender)
	})
}

// LastName yields last names.
type LastName struct {
	base
	maxLen int64
	faker  *gofakeit.Faker
}

func newLastName(cfg *Config) (Generator, error) {
	g := &LastName{faker: gofakeit.New(0)}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if g.maxLen, err = p.takeInt("max_length", 0); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *LastName) next(ctx context.Context, vars expr.Vars) (any, error) {
	return fitLength(&g.base, g.maxLen, g.faker.LastName)
}

// Email yields email addresses.
type Email struct {
	base
	faker *gofakeit.Faker
}

func newEmail(cfg *Config) (Generator, error) {
	g := &Email{faker: gofakeit.New(0)}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *Email) next(ctx context.Context, vars expr.Vars) (any, error) {
	return g.faker.Email(), nil
}
