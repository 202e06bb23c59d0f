package models

// AlgerianStates lists the 58 wilayas accepted as a school's state.
var AlgerianStates = []string{
	"Adrar", "Chlef", "Laghouat", "Oum El Bouaghi", "Batna", "Béjaïa", "Biskra",
	"Béchar", "Blida", "Bouira", "Tamanrasset", "Tébessa", "Tlemcen", "Tiaret",
	"Tizi Ouzou", "Alger", "Djelfa", "Jijel", "Sétif", "Saïda", "Skikda",
	"Sidi Bel Abbès", "Annaba", "Guelma", "Constantine", "Médéa", "Mostaganem",
	"M'Sila", "Mascara", "Ouargla", "Oran", "El Bayadh", "Illizi",
	"Bordj Bou Arréridj", "Boumerdès", "El Tarf", "Tindouf", "Tissemsilt",
	"El Oued", "Khenchela", "Souk Ahras", "Tipaza", "Mila", "Aïn Defla",
	"Naâma", "Aïn Témouchent", "Ghardaïa", "Relizane", "Timimoun",
	"Bordj Badji Mokhtar", "Ouled Djellal", "Béni Abbès", "In Salah",
	"In Guezzam", "Touggourt", "Djanet", "El M'Ghair", "El Meniaa",
}

// IsValidState reports whether state is one of the 58 wilayas (exact match).
func IsValidState(state string) bool {
	for _, s := range AlgerianStates {
		if s == state {
			return true
		}
	}
	return false
}
