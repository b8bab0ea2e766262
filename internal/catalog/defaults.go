package catalog

// DefaultProduct is the StrongPack fitness bundle.
var DefaultProduct = Product{
	ID:   "pack-fitness-001",
	Name: "Pack Fitness: Whey + Creatina + Omega-3 + Multivitamínico",
	Bullets: []string{
		"Recuperación muscular y energía diaria",
		"Fuerza y rendimiento con creatina monohidratada",
		"Salud cardiovascular y antiinflamatoria con Omega-3",
		"Micronutrientes clave para deportistas (D, B, Zinc, Magnesio)",
	},
	PriceOneTime:    64990,
	PriceSubMonthly: 58990,
	CompareAt:       69990,
}

// DefaultCoupons are the codes handed out by trainers and the welcome campaign.
var DefaultCoupons = []Coupon{
	{Code: "FIT10", Kind: KindPercent, Value: 10, Note: "Código de entrenador"},
	{Code: "START5000", Kind: KindAmount, Value: 5000, Note: "Bienvenida"},
}

// DefaultAffiliates are the promoters known at launch.
var DefaultAffiliates = []Affiliate{
	{Code: "FITJUAN10", Owner: "Juan Pérez", CommissionPct: 10},
	{Code: "CROSSFITCARO", Owner: "Carolina Cross", CommissionPct: 12},
}

// Default builds the catalog from the built-in tables.
func Default() *Catalog {
	c, err := New(DefaultProduct, DefaultCoupons, DefaultAffiliates)
	if err != nil {
		panic(err)
	}
	return c
}
