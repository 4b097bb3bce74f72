package bot

// User-facing texts. Markdown texts are sent with the legacy parse mode,
// so interpolated values go through format.Markdown.
const (
	textWelcomeLinked   = "👋 Welcome back! Pick a section below."
	textWelcomeUnlinked = "👋 Welcome! Link your account to browse and upload scripts."

	textLinkPrompt    = "📥 Please send the token to link your account."
	textTokenEmpty    = "❌ Please send a valid token."
	textAlreadyLinked = "❌ Your Telegram is already linked to an account."
	textLinked        = "✅ Telegram linked to your account!"
	textTokenInvalid  = "❌ Invalid or expired token."

	textNotLinked = "❌ Your account is not linked."
	textUnlinked  = "❌ Your account has been unlinked."

	textProfileMD = "👤 *Profile*\n\nNickname: %s\nLast login: %s\nSelected scripts: %d"
	textNever     = "never"

	textPageEmpty = "❌ There are no scripts on this page."
	textPageHead  = "🛒 Page %d of %d\nAvailable scripts:"
	textAdded     = "✅ Script added to your list."
	textRemoved   = "❌ Script removed from your list."

	textUploadPrompt   = "📥 Please send the Lua script to upload."
	textUploadTooLarge = "❌ The file is too large (limit %d KiB). Start the upload again."
	textUploadBadName  = "❌ The file name is too long. Rename it and start the upload again."
	textUploadSentMD   = "✅ Script `%s` was sent to the administrators for review!"
	textReviewCaption  = "📄 New script from %s: %s"

	textNotPending      = "❌ Script is not awaiting review."
	textApprovedMD      = "✅ Script `%s` approved and added to the catalog."
	textRejectedMD      = "❌ Script `%s` rejected. You can upload a new one."
	textReviewDone      = "Done!"
	textReviewForbidden = "❌ Reviews are only accepted from the review chat."

	textAdminMenu       = "🛠 *Admin menu*"
	textNoAccess        = "❌ You do not have access to the admin menu."
	textStatsEmpty      = "📭 Nobody has logged in today yet."
	textStatsHead       = "📊 *Today's logins:*\n\n"
	textJustNow         = "just now"
	textMinutesAgo      = "%d minutes ago"
	textDeletePrompt    = "✏️ Send the name of the script to delete."
	textNameEmpty       = "❌ Empty name."
	textScriptMissingMD = "❌ Script `%s` not found."
	textScriptDeletedMD = "✅ Script `%s` deleted."

	textChatIDMD = "🆔 This chat's ID: `%d`"

	textCancelled = "✅ Cancelled."
	textNoPending = "Nothing to cancel."

	textUnknownInput    = "🤔 I did not expect that. Use /start to open the menu."
	textUnexpectedMedia = "📎 I was not waiting for a file. Use /start to open the menu."
	textStaleButton     = "⌛ This button is no longer active."
	textRateLimited     = "⏳ Too many requests, slow down a little."
	textFailed          = "⚠️ Something went wrong. Please try again later."

	btnLink        = "🔗 Link account"
	btnProfile     = "👤 Profile"
	btnMarketplace = "🛒 Marketplace"
	btnUnlink      = "📤 Unlink Telegram"
	btnPrev        = "⬅️ Back"
	btnNext        = "➡️ Next"
	btnUpload      = "📝 Upload script"
	btnApprove     = "✅ Approve"
	btnReject      = "❌ Reject"
	btnStats       = "📊 Login stats"
	btnDelete      = "🗑 Delete script"
	markSelected   = "✅ "
)
