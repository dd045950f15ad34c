package model

import "sort"

// SiteContent is the whole editable copy of the site, persisted as one JSON document.
type SiteContent struct {
	Hero         Hero         `json:"hero"`
	About        About        `json:"about"`
	Services     []Service    `json:"services"`
	Pricing      Pricing      `json:"pricing"`
	Testimonials Testimonials `json:"testimonials"`
	Contact      Contact      `json:"contact"`
	Navigation   Navigation   `json:"navigation"`
	Footer       Footer       `json:"footer"`
}

type Hero struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Description     string `json:"description"`
	BadgeText       string `json:"badgeText"`
	CTAButton       string `json:"ctaButton"`
	SecondaryButton string `json:"secondaryButton"`
}

type About struct {
	Title          string   `json:"title"`
	Subtitle       string   `json:"subtitle"`
	Description    string   `json:"description"`
	Experience     string   `json:"experience"`
	Qualifications []string `json:"qualifications"`
	Image          string   `json:"image"`
}

type Service struct {
	ID          string   `json:"id"`
	Icon        string   `json:"icon"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Image       string   `json:"image"`
	Order       int      `json:"order"`
}

type Pricing struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Plans    []PricingPlan `json:"plans"`
}

type PricingPlan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Duration    string   `json:"duration"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	IsPopular   bool     `json:"isPopular"`
	Order       int      `json:"order"`
}

type Testimonials struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Reviews  []Testimonial `json:"reviews"`
}

type Testimonial struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
	Image   string `json:"image"`
	Order   int    `json:"order"`
}

type Contact struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Hours    string `json:"hours"`
}

type Navigation struct {
	Logo      string    `json:"logo"`
	MenuItems []NavItem `json:"menuItems"`
}

type NavItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Href  string `json:"href"`
	Order int    `json:"order"`
}

type Footer struct {
	Description string       `json:"description"`
	SocialLinks []SocialLink `json:"socialLinks"`
}

type SocialLink struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
}

// SortedServices returns services in display order. Ties keep document order.
func (c SiteContent) SortedServices() []Service {
	out := append([]Service(nil), c.Services...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// SortedPlans returns pricing plans in display order.
func (c SiteContent) SortedPlans() []PricingPlan {
	out := append([]PricingPlan(nil), c.Pricing.Plans...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// SortedReviews returns testimonials in display order.
func (c SiteContent) SortedReviews() []Testimonial {
	out := append([]Testimonial(nil), c.Testimonials.Reviews...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// SortedMenuItems returns navigation entries in display order.
func (c SiteContent) SortedMenuItems() []NavItem {
	out := append([]NavItem(nil), c.Navigation.MenuItems...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// DuplicateOrders lists the ordered sections that reuse an order value.
// Duplicates are legal; callers only report them.
func (c SiteContent) DuplicateOrders() []string {
	var out []string
	check := func(name string, orders []int) {
		seen := make(map[int]struct{}, len(orders))
		for _, o := range orders {
			if _, ok := seen[o]; ok {
				out = append(out, name)
				return
			}
			seen[o] = struct{}{}
		}
	}

	orders := make([]int, 0, len(c.Services))
	for _, s := range c.Services {
		orders = append(orders, s.Order)
	}
	check("services", orders)

	orders = orders[:0]
	for _, p := range c.Pricing.Plans {
		orders = append(orders, p.Order)
	}
	check("pricing.plans", orders)

	orders = orders[:0]
	for _, r := range c.Testimonials.Reviews {
		orders = append(orders, r.Order)
	}
	check("testimonials.reviews", orders)

	orders = orders[:0]
	for _, m := range c.Navigation.MenuItems {
		orders = append(orders, m.Order)
	}
	check("navigation.menuItems", orders)

	return out
}
