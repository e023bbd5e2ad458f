package catalog

// Defaults returns the built-in bacterium catalog.
func Defaults() []Definition {
	defs := []Definition{
		{ID: "entero", Name: "Entérobactéries", DelayHours: 24, Color: "#F38BA8", Enabled: true,
			Description: "Famille de bactéries Gram-négatives"},
		{ID: "ecoli", Name: "Escherichia coli", DelayHours: 24, Color: "#EBA0AC", Enabled: true,
			Description: "Bactérie indicatrice de contamination fécale"},
		{ID: "coliformes", Name: "Coliformes totaux", DelayHours: 48, Color: "#F9E2AF", Enabled: true,
			Description: "Indicateurs de contamination générale"},
		{ID: "staphylocoques", Name: "Staphylocoques", DelayHours: 48, Color: "#89B4FA", Enabled: true,
			Description: "Bactéries à Gram positif"},
		{ID: "listeria", Name: "Listeria", DelayHours: 48, Color: "#CBA6F7", Enabled: true,
			Description: "Pathogène dangereux pour les femmes enceintes"},
		{ID: "levures3j", Name: "Levures/Moisissures (3j)", DelayHours: 72, Color: "#A6E3A1", Enabled: true,
			Description: "Lecture rapide des levures et moisissures"},
		{ID: "flores", Name: "Flore totales", DelayHours: 72, Color: "#FAB387", Enabled: true,
			Description: "Flore microbienne globale"},
		{ID: "leuconostoc", Name: "Leuconostoc", DelayHours: 96, Color: "#F5C2E7", Enabled: true,
			Description: "Bactéries lactiques spécifiques"},
		{ID: "levures5j", Name: "Levures/Moisissures (5j)", DelayHours: 120, Color: "#94E2D5", Enabled: true,
			Description: "Lecture complète des levures et moisissures"},
	}
	for i := range defs {
		defs[i].DelayDisplay = FormatDelay(defs[i].DelayHours)
	}
	return defs
}
