package catalog

// Default returns the built-in reference catalogs. Each call returns a
// fresh copy.
func Default() *Catalogs {
	return &Catalogs{
		Basins: []Basin{
			{
				Name: "Permian Basin",
				States: map[string][]string{
					"Texas": {
						"Andrews", "Borden", "Crane", "Crockett", "Dawson", "Ector",
						"Gaines", "Glasscock", "Howard", "Loving", "Martin", "Midland",
						"Pecos", "Reeves", "Terrell", "Upton", "Ward", "Winkler",
						"Coke", "Sterling", "Garza", "Lynn", "Mitchell", "Reagan", "Tom Green",
					},
					"New Mexico": {"Lea", "Eddy", "Chaves"},
				},
			},
			{
				Name: "Eagle Ford",
				States: map[string][]string{
					"Texas": {
						"Atascosa", "Bee", "DeWitt", "Dimmit", "Frio", "Gonzales",
						"Karnes", "La Salle", "Lavaca", "Live Oak", "McMullen",
						"Webb", "Wilson", "Zavala",
					},
				},
			},
			{
				Name: "Haynesville",
				States: map[string][]string{
					"Texas":     {"Harrison", "Panola", "Shelby"},
					"Louisiana": {"Bossier", "Caddo", "De Soto", "Red River"},
				},
			},
			{
				Name: "Bakken",
				States: map[string][]string{
					"North Dakota": {"Dunn", "McKenzie", "Mountrail", "Williams"},
					"Montana":      {"Richland", "Roosevelt"},
				},
			},
			{
				Name: "Marcellus",
				States: map[string][]string{
					"Pennsylvania": {
						"Allegheny", "Armstrong", "Beaver", "Butler", "Fayette",
						"Greene", "Washington", "Westmoreland",
					},
					"West Virginia": {"Marshall", "Wetzel", "Tyler", "Doddridge", "Harrison"},
				},
			},
		},
		Entity: EntityCatalog{
			Name:    "Atlas Energy Solutions",
			Keyword: "ATLAS",
			// Subsidiary and brand names from the 10-K exhibit list.
			Patterns: []string{
				"ATLAS ENERGY SOLUTIONS",
				"ATLAS SAND COMPANY",
				"ATLAS SAND CO",
				"ATLAS SAND OPERATING",
				"ATLAS SAND",
				"AESI HOLDINGS",
				"OLC KERMIT",
				"OLC MONAHANS",
				"FOUNTAINHEAD LOGISTICS",
				"CAPITAL SAND",
			},
		},
		Products: ProductCatalog{
			Approved: []string{
				"40/70", "100", "100M", "100 MESH",
				"40/140 BROWN DRY", "40/140 BROWN DAMP",
				"100 MESH PROPPANT", "SAND (100 MESH PROPPANT)", "SAND (40/70 PROPPANT)",
				"40/70 MESH",
				"SAND, PERMIAN 40/140", "100 MESH PERMIAN",
				"SAND-LOCAL, 100M", "SAND-LOCAL, 40/70",
				"WEST TX 100 MESH", "WEST TX 40/70",
				"CAPITAL SAND 40/140",
				"SAND - REGIONAL", "40/70 REGIONAL", "100 MESH REGIONAL SAND",
				"SAND, COMMON BROWN 100 MESH",
				"SAND, SAN ANTONIO, 40/70", "SAND, SAN ANTONIO - 100M",
				"SAND", "SILICA SAND", "SAND (PROPPANT)",
				"CRYSTALLINE SILICA QUARTZ",
				"SAND,NATIVE,100 MESH", "SAND (40/140 PROPPANT)",
			},
			Excluded: []string{
				// Northern white
				"SAND-COMMON WHITE-100 MESH", "SAND-PREMIUM WHITE-40/70", "SAND-PREMIUM WHITE-30/50",
				"SAND-COMMON WHITE, 100M", "SAND-COMMON WHITE 40/70",
				"100 MESH WESTERN", "100 MESH POWDER RIVER",
				// Resin-coated
				"GARNET", "PEARL", "CHROME", "RESIN COATED PROPPANT",
				"SAND-CRC-40/70", "CRC",
				// Ceramic
				"CARBOLITE", "CERAMIC PROPPANT", "DEEPROP",
				// Specialty
				"NANOMITE", "MP-D1", "S901",
				// Not proppant
				"PETCOKE", "PETROLEUM COKE", "SURFACTANT",
			},
			ExcludedKeywords: []string{"WHITE", "RESIN", "CERAMIC", "CARBO"},
		},
	}
}
