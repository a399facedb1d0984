package service

import "github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"

type nicheCopy struct {
	headline string
	about    string
	services []string
}

var nicheTemplates = map[model.Niche]nicheCopy{
	model.NicheRestaurant: {
		headline: "Fresh food, served with love",
		about:    "Tell guests about your kitchen, your story and what makes your dishes special.",
		services: []string{"Dine-in", "Takeaway", "Catering"},
	},
	model.NicheSalon: {
		headline: "Look good, feel great",
		about:    "Introduce your stylists and the experience clients can expect.",
		services: []string{"Hair styling", "Braiding", "Manicure & pedicure"},
	},
	model.NicheRealEstate: {
		headline: "Find your next home",
		about:    "Share your experience in the local property market.",
		services: []string{"Sales", "Rentals", "Property management"},
	},
	model.NichePortfolio: {
		headline: "Work that speaks for itself",
		about:    "A short introduction to who you are and what you create.",
		services: []string{"Design", "Photography", "Consulting"},
	},
	model.NicheConsulting: {
		headline: "Expert advice for growing businesses",
		about:    "Describe your expertise and the results you deliver for clients.",
		services: []string{"Strategy", "Operations", "Training"},
	},
	model.NicheFitness: {
		headline: "Stronger every day",
		about:    "Introduce your trainers, classes and facilities.",
		services: []string{"Personal training", "Group classes", "Nutrition plans"},
	},
	model.NicheGeneral: {
		headline: "Welcome to our business",
		about:    "Tell visitors who you are and how you can help them.",
		services: []string{"Service one", "Service two", "Service three"},
	},
}

// DefaultBlocks is the starter content for a niche.
func DefaultBlocks(niche model.Niche, title string) model.Blocks {
	tpl, ok := nicheTemplates[niche]
	if !ok {
		tpl = nicheTemplates[model.NicheGeneral]
	}

	services := make([]interface{}, 0, len(tpl.services))
	for _, name := range tpl.services {
		services = append(services, map[string]interface{}{"title": name, "description": ""})
	}

	return model.Blocks{
		{ID: "hero", Type: model.BlockHero, Data: map[string]interface{}{"title": title, "subtitle": tpl.headline}},
		{ID: "about", Type: model.BlockAbout, Data: map[string]interface{}{"text": tpl.about}},
		{ID: "services", Type: model.BlockServices, Data: map[string]interface{}{"items": services}},
		{ID: "gallery", Type: model.BlockGallery, Data: map[string]interface{}{"images": []interface{}{}}},
		{ID: "testimonials", Type: model.BlockTestimonials, Data: map[string]interface{}{"items": []interface{}{}}},
		{ID: "contact", Type: model.BlockContact, Data: map[string]interface{}{"phone": "", "email": "", "location": ""}},
	}
}
