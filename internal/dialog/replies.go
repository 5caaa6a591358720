package dialog

// User-facing reply texts. Replies marked Markdown in the engine use
// Telegram's Markdown parse mode; the rest are plain text.
const (
	msgGreeting = "Hi! I'm your scheduling assistant. 🤖\n\n" +
		"🔹 Use /schedule to add a new event\n" +
		"🔹 Use /list to see your appointments\n" +
		"🔹 Use /delete to remove an event\n" +
		"🔹 Use /help for help"

	msgHelp = "📋 *Available commands:*\n" +
		"/start - Start the bot\n" +
		"/schedule - Add a new event\n" +
		"/list - Show your appointments\n" +
		"/delete - Remove an event\n" +
		"/help - Show this help\n" +
		"/cancel - Cancel the operation in progress\n\n" +
		"📅 *Date format:*\n" +
		"DD/MM/YYYY or DD/MM (for the current year)\n" +
		"Example: 25/12/2024 or 25/12"

	msgUnknownCommand = "Unknown command. Use /help"

	msgAskDate        = "📅 Please enter the event date (DD/MM or DD/MM/YYYY):"
	msgAskDescription = "✏️ Now enter the event description:"

	msgBadDate = "⚠️ *Invalid format!*\n" +
		"Use DD/MM or DD/MM/YYYY\n" +
		"Example: 25/12 or 25/12/2024\n\n" +
		"Please try again:"

	msgNoEvents        = "📭 You have no scheduled events."
	msgNothingToDelete = "📭 You have no scheduled events to remove."

	msgChoiceNotANumber = "⚠️ *Invalid input!* Send just the event number.\n" +
		"Please try again:"

	msgAlreadyRemoved = "⚠️ Event not found or already removed."

	msgCancelled       = "❌ Operation cancelled."
	msgNothingToCancel = "There is no operation in progress."

	msgStoreFailure = "⚠️ An unexpected error occurred. Please try again."
)
