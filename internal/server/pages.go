package server

import "html/template"

// Informational page bodies, rendered through the shared prose layout.

const homeContent = template.HTML(`
<h1>meet</h1>
<p>A fast, cached Google Meet link generator. Instead of waiting for <code>meet.new</code> to load every time, visit <a href="/">the app</a> and get instantly redirected to your daily meeting link.</p>

<hr>

<h2>How it works</h2>

<p>When you visit the app, it creates a Google Meet link for you and caches it for the day. Every subsequent visit reuses the same link &mdash; no waiting, no extra clicks. Once a day, all links are cleared and fresh ones are generated on the next visit.</p>

<h3>Single user</h3>
<p>If you're the only person using the app, visiting <code>/</code> will either create a new daily meeting or reuse today's cached one. You're immediately redirected and the link is copied to your clipboard.</p>

<h3>Multiple users</h3>
<p>When multiple people have signed in, each person gets their own daily meeting stored separately. Visiting <code>/</code> shows a selection UI listing everyone's meetings. Your own meeting is auto-selected and redirects after 2 seconds. Click someone else's meeting to join theirs instead.</p>

<h3>Direct links with <code>?owner=</code></h3>
<p>Want to invite someone to <em>your</em> meeting without them having to pick from the list? Each signed-in user gets a unique, private link like:</p>
<pre><code>https://meet.example.com/?owner=a1b2c3d4</code></pre>
<p>When anyone opens this link, they're taken directly to the owner's meeting. If the owner hasn't created one for the day yet, it's created automatically on their behalf. Visit <a href="/me">/me</a> to find your direct link. The link uses an opaque ID &mdash; your email is never exposed in the URL.</p>

<h3>Ad-hoc meetings</h3>
<p>Visit <code>/new</code> to create a one-off meeting that isn't cached or stored. Useful for quick throwaway calls.</p>

<hr>

<h2>Routes</h2>

<table>
  <tr><th>Route</th><th>Behavior</th></tr>
  <tr><td><code>/</code></td><td>List or create daily meetings, auto-redirect</td></tr>
  <tr><td><code>/?owner=id</code></td><td>Redirect to a specific user's daily meeting</td></tr>
  <tr><td><code>/new</code></td><td>Create a fresh one-off meeting</td></tr>
  <tr><td><code>/me</code></td><td>View your profile and direct link</td></tr>
  <tr><td><code>/login</code></td><td>Sign in with Google</td></tr>
  <tr><td><code>/logout</code></td><td>Clear your session</td></tr>
</table>

<hr>

<h2>Technical details</h2>

<ul>
  <li>A single Go service &mdash; no static assets, all HTML is served inline</li>
  <li>Uses the Google Meet REST API to create meeting spaces</li>
  <li>Meetings are stored in Valkey with a daily cleanup job</li>
  <li>OAuth sessions are stored in HMAC-signed HTTP-only cookies</li>
</ul>

<hr>

<p style="margin-top: 20px; text-align: center;">
  <a href="/login" style="display: inline-block; padding: 10px 24px; background: #1a73e8; color: #fff; font-family: 'JetBrains Mono', monospace; font-size: 12px; font-weight: 500; border: none;">sign in with google</a>
</p>
`)

const tncContent = template.HTML(`
<h1>Terms and Conditions</h1>
<p><em>Last updated: February 2026</em></p>

<hr>

<h2>1. Acceptance of Terms</h2>
<p>By accessing or using meet, you agree to be bound by these Terms and Conditions. If you do not agree, do not use the service.</p>

<h2>2. Description of Service</h2>
<p>meet is a web application that generates and caches daily Google Meet links. It uses the Google Meet REST API to create meeting spaces on behalf of authenticated users.</p>

<h2>3. Google Account Authorization</h2>
<p>To use the full functionality of the service, you must authorize it with your Google account. By doing so, you grant meet permission to:</p>
<ul>
  <li>Create Google Meet meeting spaces on your behalf</li>
  <li>Access your basic profile information (name and email address)</li>
</ul>
<p>You can revoke this access at any time through your <a href="https://myaccount.google.com/permissions">Google Account permissions</a>.</p>

<h2>4. User Responsibilities</h2>
<ul>
  <li>You are responsible for maintaining the security of your Google account</li>
  <li>You agree not to misuse the service or attempt to access other users' data</li>
  <li>You understand that meetings created through the service are subject to Google's own Terms of Service</li>
</ul>

<h2>5. Service Availability</h2>
<p>The service is provided on an "as is" and "as available" basis. There is no guarantee of uptime, availability, or reliability. The service may be modified, suspended, or discontinued at any time without notice.</p>

<h2>6. Data and Meeting Links</h2>
<ul>
  <li>Daily meeting links are cached and automatically cleared once a day</li>
  <li>The service does not store meeting content, recordings, or participant information</li>
  <li>Meeting links generated through the service are Google Meet links and are subject to Google's policies</li>
</ul>

<h2>7. Limitation of Liability</h2>
<p>To the maximum extent permitted by law, the service and its operator shall not be liable for any indirect, incidental, special, consequential, or punitive damages arising from your use of the service, including but not limited to loss of data, unauthorized access to meetings, or service interruptions.</p>

<h2>8. Changes to Terms</h2>
<p>These terms may be updated at any time. Continued use of the service after changes constitutes acceptance of the new terms.</p>

<h2>9. Contact</h2>
<p>For questions about these terms, contact the operator of this deployment.</p>
`)

const privacyContent = template.HTML(`
<h1>Privacy Policy</h1>
<p><em>Last updated: February 2026</em></p>

<hr>

<h2>1. Information We Collect</h2>
<p>When you sign in with Google, we receive and store the following information:</p>
<ul>
  <li><strong>Email address</strong> &mdash; used to identify your account and store your daily meeting link</li>
  <li><strong>Display name</strong> &mdash; shown in the meeting selection UI so other users can identify meetings</li>
  <li><strong>OAuth refresh token</strong> &mdash; used to create Google Meet meetings on your behalf without requiring you to sign in each time</li>
</ul>

<h2>2. How We Use Your Information</h2>
<p>Your information is used solely to:</p>
<ul>
  <li>Create Google Meet meeting spaces on your behalf via the Google Meet REST API</li>
  <li>Cache your daily meeting link so it can be reused throughout the day</li>
  <li>Display your name alongside your meeting in the selection UI</li>
  <li>Allow other users to join your meeting via the <code>?owner=</code> direct link feature</li>
</ul>

<h2>3. Data Storage</h2>
<ul>
  <li><strong>Session cookie</strong> &mdash; your session (email, name, refresh token) is stored in an HMAC-signed, HTTP-only, secure cookie in your browser with a 30-day expiry</li>
  <li><strong>Valkey</strong> &mdash; your daily meeting link (URL, name, email) is stored server-side and automatically deleted once a day</li>
  <li><strong>Refresh token</strong> &mdash; stored separately server-side (not deleted daily) to support the direct link feature. It is never exposed to other users or sent to the browser</li>
</ul>

<h2>4. Data Sharing</h2>
<p>We do not sell, trade, or share your personal information with any third parties. Your data is only used within the service to provide its functionality. The only external service we communicate with is the Google API (for authentication and meeting creation).</p>

<h2>5. Data Visible to Other Users</h2>
<p>When multiple users are signed in, the following is visible to other users of the service:</p>
<ul>
  <li>Your display name</li>
  <li>Your meeting link for the day</li>
</ul>
<p>Your email address and refresh token are never exposed to other users.</p>

<h2>6. Data Retention</h2>
<ul>
  <li><strong>Meeting links</strong> are automatically deleted daily</li>
  <li><strong>Refresh tokens</strong> persist until you revoke access or they are manually removed</li>
  <li><strong>Session cookies</strong> expire after 30 days</li>
</ul>

<h2>7. How to Delete Your Data</h2>
<p>To remove your data from the service:</p>
<ol>
  <li>Visit <code>/logout</code> to clear your session cookie</li>
  <li>Revoke the app's access in your <a href="https://myaccount.google.com/permissions">Google Account permissions</a> to invalidate your stored refresh token</li>
</ol>
<p>For complete removal of server-side data, contact the operator of this deployment.</p>

<h2>8. Security</h2>
<ul>
  <li>Session cookies are HTTP-only, secure, SameSite=Lax, and HMAC-signed</li>
  <li>OAuth flow includes CSRF protection via state parameter</li>
  <li>Stored refresh tokens are never sent to the client</li>
  <li>All communication with Google APIs is over HTTPS</li>
</ul>

<h2>9. Google API Services</h2>
<p>This application's use of information received from Google APIs adheres to the <a href="https://developers.google.com/terms/api-services-user-data-policy">Google API Services User Data Policy</a>, including the Limited Use requirements.</p>

<h2>10. Changes to This Policy</h2>
<p>This privacy policy may be updated at any time. Changes will be reflected on this page with an updated date.</p>

<h2>11. Contact</h2>
<p>For questions about this privacy policy or your data, contact the operator of this deployment.</p>
`)
