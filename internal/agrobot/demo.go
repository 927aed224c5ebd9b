package agrobot

import "strings"

type demoRule struct {
	keywords []string
	reply    string
}

// regras avaliadas em ordem; vence a primeira com alguma palavra-chave
var demoRules = []demoRule{
	{
		keywords: []string{"tomato"},
		reply: "**Growing Tomatoes – Best Practices 🍅**\n\nTomatoes thrive with these care steps:\n\n" +
			"• **Sunlight:** 6–8 hours of direct sun daily\n" +
			"• **Soil pH:** Keep between 5.8–7.0 (slightly acidic)\n" +
			"• **Watering:** Deep watering 2–3 times per week. Avoid wetting leaves\n" +
			"• **Fertilizer:** Apply balanced NPK (10-10-10) monthly; switch to low-N formula after flowering\n" +
			"• **Support:** Use stakes or cages when plants reach 30cm tall\n" +
			"• **Pest Watch:** Check regularly for *aphids*, *whiteflies*, and *hornworms*\n\n" +
			"💡 **Tip:** Pinch off suckers (small shoots between stem and branch) to improve fruit yield!",
	},
	{
		keywords: []string{"aphid", "pest"},
		reply: "**Aphid Identification & Treatment 🐛**\n\n**How to identify aphids:**\n" +
			"• Tiny soft-bodied insects (green, yellow, black, or white)\n" +
			"• Found in clusters under leaves and on new stems\n" +
			"• Leaves may curl, yellow, or look sticky (honeydew residue)\n\n" +
			"**Organic treatments:**\n" +
			"• **Neem oil spray** – Mix 2ml/L water, spray every 7 days\n" +
			"• **Soap spray** – 5ml dish soap per liter, spray undersides of leaves\n" +
			"• **Ladybugs** – Natural predators, encourage in the garden\n\n" +
			"**Chemical treatments (if severe):**\n" +
			"• Apply *imidacloprid* or *pyrethrin*-based insecticide\n" +
			"• Rotate chemicals to prevent resistance\n\n" +
			"💡 **Prevention:** Avoid over-fertilizing with nitrogen, aphids love lush, soft new growth!",
	},
	{
		keywords: []string{"season", "plant", "month"},
		reply: "**Seasonal Planting Guide for India 🌾**\n\n" +
			"**Kharif Season (June–November) – Monsoon Crops:**\n" +
			"• Rice, Maize, Cotton, Soybean, Groundnut\n" +
			"• Requires 700–1200mm rainfall\n\n" +
			"**Rabi Season (November–April) – Winter Crops:**\n" +
			"• Wheat, Mustard, Gram, Potato, Peas\n" +
			"• Requires cool temperatures (10–25°C)\n\n" +
			"**Zaid Season (March–June) – Summer Crops:**\n" +
			"• Watermelon, Cucumber, Pumpkin, Sunflower\n" +
			"• Requires high temperatures and irrigation",
	},
	{
		keywords: []string{"ph", "acidic", "alkaline"},
		reply: "**Soil pH Management 🧪**\n\n**What is soil pH?**\n" +
			"Soil pH measures how acidic or alkaline your soil is on a scale of 0–14. Most crops prefer 6–7 (slightly acidic to neutral).\n\n" +
			"**If soil is too acidic (pH < 6):**\n" +
			"• Apply *agricultural lime* (calcium carbonate) – 1–2 tons/hectare\n" +
			"• Use *wood ash* as an organic alternative\n" +
			"• Wait 2–4 weeks before re-testing\n\n" +
			"**If soil is too alkaline (pH > 7.5):**\n" +
			"• Apply *elemental sulfur* – 200–500kg/hectare\n" +
			"• Use *acidic fertilizers* like ammonium sulfate\n" +
			"• Incorporate organic matter (compost)\n\n" +
			"💡 **Your SoilSense dashboard** shows live pH readings – check the Dashboard tab for your current soil pH!",
	},
	{
		keywords: []string{"nitrogen", "npk", "fertili"},
		reply: "**NPK Fertilizer Guide 🌿**\n\n" +
			"**N – Nitrogen:** Promotes leafy green growth\n" +
			"• Deficiency signs: Yellow leaves, stunted growth\n" +
			"• Sources: *Urea (46-0-0)*, Ammonium Nitrate, Compost\n" +
			"• Apply: Before sowing & 30 days after germination\n\n" +
			"**P – Phosphorus:** Strengthens roots and flowers\n" +
			"• Deficiency signs: Purple-tinged leaves, poor root growth\n" +
			"• Sources: *DAP (18-46-0)*, Superphosphate, Bone meal\n" +
			"• Apply: Mix into soil before planting\n\n" +
			"**K – Potassium:** Improves disease resistance and fruit quality\n" +
			"• Deficiency signs: Brown leaf edges, dry tips\n" +
			"• Sources: *MOP (0-0-60)*, Potassium sulfate\n" +
			"• Apply: Split doses every 30 days\n\n" +
			"💡 **SoilSense tip:** Your NPK sensor shows real-time levels, check Recommendations page for crop-specific fertilizer advice!",
	},
	{
		keywords: []string{"moisture", "water", "irrig"},
		reply: "**Soil Moisture & Irrigation Guide 💧**\n\n**Ideal moisture levels by crop:**\n" +
			"• *Rice:* 65–85% | *Wheat:* 45–65% | *Tomato:* 55–75%\n" +
			"• *Cotton:* 40–65% | *Maize:* 50–75%\n\n" +
			"**Irrigation methods:**\n" +
			"• **Drip irrigation** – Most efficient (90%+ water use), best for vegetables\n" +
			"• **Sprinkler irrigation** – Good for wheat and groundnuts\n" +
			"• **Flood irrigation** – Traditional, used for rice\n\n" +
			"**Signs of over-watering:**\n• Yellowing leaves, root rot, fungal growth\n\n" +
			"**Signs of under-watering:**\n• Wilting, dry cracked soil, brown edges on leaves\n\n" +
			"💡 **SoilSense auto-irrigation** activates the water pump when moisture drops below your crop's minimum threshold!",
	},
	{
		keywords: []string{"disease", "fungal", "blight"},
		reply: "**Crop Disease Management 🔬**\n\n**Common fungal diseases:**\n" +
			"• *Leaf blight* – Brown irregular patches. Apply mancozeb fungicide\n" +
			"• *Powdery mildew* – White powdery coating. Apply sulfur-based spray\n" +
			"• *Root rot* – Wilting in moist soil. Improve drainage + apply fungicide\n\n" +
			"**Common bacterial diseases:**\n" +
			"• *Bacterial wilt* – Sudden wilting. Remove infected plants immediately\n" +
			"• *Leaf spot* – Small water-soaked lesions. Apply copper-based bactericide\n\n" +
			"**Viral diseases:**\n" +
			"• *Mosaic virus* – Mottled yellow/green leaves. No cure, remove plant\n" +
			"• Transmitted by aphids and whiteflies; control insect vectors\n\n" +
			"**Prevention tips:**\n" +
			"• Crop rotation every season\n" +
			"• Avoid working in wet fields (spreads disease)\n" +
			"• Destroy infected plant debris\n" +
			"• Use disease-resistant seed varieties",
	},
	{
		keywords: []string{"rice"},
		reply: "**Rice Cultivation Guide 🌾**\n\n**Ideal conditions:**\n" +
			"• Temperature: 20–38°C | pH: 5.5–7.0 | Moisture: 65–85%\n" +
			"• Rainfall: 1000–2000mm (or irrigation equivalent)\n\n" +
			"**Key stages:**\n" +
			"1. *Nursery (0–25 days):* Sow seeds in wet seedbeds\n" +
			"2. *Transplanting (25–30 days):* Move 20cm seedlings to main field\n" +
			"3. *Vegetative (30–60 days):* Maintain 5cm standing water\n" +
			"4. *Reproductive (60–90 days):* Reduce water, apply potassium\n" +
			"5. *Ripening (90–120 days):* Drain field 2 weeks before harvest\n\n" +
			"**Common pests:** Brown planthopper, Stem borer, Leaf folder\n" +
			"**Common diseases:** Blast, Sheath blight, Bacterial leaf blight\n\n" +
			"💡 **NPK for Rice:** Apply Urea (Nitrogen) in 3 splits: at transplanting, tillering, and panicle initiation",
	},
	{
		keywords: []string{"wheat"},
		reply: "**Wheat Cultivation Guide 🌿**\n\n**Ideal conditions:**\n" +
			"• Temperature: 12–28°C | pH: 6.0–7.5 | Moisture: 45–65%\n" +
			"• Best sown in *November–December* (north India)\n\n" +
			"**Fertilizer schedule:**\n" +
			"• *Basal dose:* DAP 100kg/ha + MOP 50kg/ha before sowing\n" +
			"• *1st top dressing (25–30 days):* Urea 75kg/ha\n" +
			"• *2nd top dressing (50–60 days):* Urea 75kg/ha\n\n" +
			"**Irrigation schedule:**\n" +
			"1. Crown root initiation (20–25 days)\n" +
			"2. Tillering (40–45 days)\n" +
			"3. Jointing (60–65 days)\n" +
			"4. Flowering (80–85 days)\n" +
			"5. Grain filling (100–105 days)\n\n" +
			"**Key diseases:** Yellow rust, Loose smut, Karnal bunt\n\n" +
			"💡 **Harvest:** When grain moisture drops to 12–14%, typically March–April",
	},
}

// DemoFallback resposta quando nenhuma palavra-chave casa
const DemoFallback = "**Great question! 🌾**\n\nI'm running in demo mode. Here are some popular topics I can help with:\n\n" +
	"• **Type** \"tomato\" for tomato growing tips\n" +
	"• **Type** \"aphid\" for pest management\n" +
	"• **Type** \"season\" for seasonal planting guide\n" +
	"• **Type** \"ph\" for soil pH management\n" +
	"• **Type** \"fertilizer\" for NPK fertilizer guidance\n" +
	"• **Type** \"disease\" for crop disease management\n" +
	"• **Type** \"irrigation\" for watering advice\n\n" +
	"To unlock full AI responses, add your OpenAI API key in the chat settings!"

// Greeting mensagem de boas-vindas da sessão
func Greeting(demo bool) string {
	mode := ""
	if demo {
		mode = " *(Demo Mode – add an API key in settings for full responses)*"
	}
	return "**Welcome to AgroBot! 🌾**" + mode + "\n\nI'm your personal agricultural expert. I can help you with:\n\n" +
		"• 🌱 Crop growing tips & best practices\n" +
		"• 🐛 Pest identification & organic treatment\n" +
		"• 🧪 Soil health – pH, NPK, and moisture\n" +
		"• 💧 Irrigation advice for your crop\n" +
		"• 🌤️ Seasonal planting guidance\n" +
		"• 🔬 Crop disease diagnosis\n\n" +
		"Your current sensors are live – I can see your real soil data! What would you like to know?"
}

// DemoResponse resposta offline por palavra-chave, sem distinção de caixa
func DemoResponse(question string) string {
	q := strings.ToLower(question)
	for _, rule := range demoRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.reply
			}
		}
	}
	return DemoFallback
}
